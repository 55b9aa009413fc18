package transport

const (
	MethodConnectionStatus  = "connection.status"
	MethodConnectionConnect = "connection.connect"
	MethodConnectionRetry   = "connection.retry"
	MethodConnectionReset   = "connection.reset"
	MethodWalletPrompt      = "wallet.prompt"
	MethodWalletApprove     = "wallet.approve"
	MethodWalletReject      = "wallet.reject"

	NotificationConnection   = "notify.connection"
	NotificationWalletPrompt = "notify.wallet_prompt"
)
