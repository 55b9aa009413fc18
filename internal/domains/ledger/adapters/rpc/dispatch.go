package rpc

import (
	"context"
	"encoding/json"

	"lor-chain/go-backend/internal/domains/contracts"
	ledgertransport "lor-chain/go-backend/internal/domains/ledger/transport"
	ledgerusecase "lor-chain/go-backend/internal/domains/ledger/usecase"
	"lor-chain/go-backend/internal/domains/rpckit"
)

var kindCodes = map[ledgerusecase.Kind]int{
	ledgerusecase.KindNotConnected:          -32040,
	ledgerusecase.KindUserRejected:          -32041,
	ledgerusecase.KindUnauthorized:          -32042,
	ledgerusecase.KindNotFound:              -32043,
	ledgerusecase.KindAlreadyRequested:      -32044,
	ledgerusecase.KindNotRequested:          -32045,
	ledgerusecase.KindAlreadyApproved:       -32046,
	ledgerusecase.KindInvalidInput:          -32047,
	ledgerusecase.KindInsufficientResources: -32048,
	ledgerusecase.KindExecutionReverted:     -32049,
	ledgerusecase.KindTransport:             -32050,
}

// CodeForKind returns the JSON-RPC error code of a ledger failure kind.
func CodeForKind(kind ledgerusecase.Kind) int {
	if code, ok := kindCodes[kind]; ok {
		return code
	}
	return kindCodes[ledgerusecase.KindTransport]
}

func Dispatch(ctx context.Context, service contracts.LedgerAPI, method string, rawParams json.RawMessage) (any, *rpckit.Error, bool) {
	switch method {
	case ledgertransport.MethodAddStudent:
		result, rpcErr := callWithStudentParams(rawParams, func(name, course, email string) (any, error) {
			return service.AddStudent(ctx, name, course, email)
		})
		return result, rpcErr, true
	case ledgertransport.MethodRequestLetter:
		result, rpcErr := callWithStudentParams(rawParams, func(name, course, email string) (any, error) {
			return service.RequestLetter(ctx, name, course, email)
		})
		return result, rpcErr, true
	case ledgertransport.MethodRequestRecommendation:
		result, rpcErr := callWithIDParam(rawParams, func(id uint64) (any, error) {
			return service.RequestRecommendation(ctx, id)
		})
		return result, rpcErr, true
	case ledgertransport.MethodApproveRecommendation:
		result, rpcErr := callWithIDParam(rawParams, func(id uint64) (any, error) {
			return service.ApproveRecommendation(ctx, id)
		})
		return result, rpcErr, true
	case ledgertransport.MethodGetStudent:
		result, rpcErr := callWithIDParam(rawParams, func(id uint64) (any, error) {
			student, err := service.GetStudent(ctx, id)
			if err != nil {
				return nil, err
			}
			return map[string]any{"student": student, "status": student.Status()}, nil
		})
		return result, rpcErr, true
	case ledgertransport.MethodStudentCount:
		if err := rpckit.DecodeNoParams(rawParams); err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		count, err := service.StudentCount(ctx)
		if err != nil {
			return nil, ledgerError(err), true
		}
		return map[string]uint64{"count": count}, nil, true
	default:
		return nil, nil, false
	}
}

func callWithStudentParams(rawParams json.RawMessage, call func(name, course, email string) (any, error)) (any, *rpckit.Error) {
	name, course, email, err := rpckit.DecodeThreeStringParams(rawParams)
	if err != nil {
		return nil, rpckit.InvalidParams()
	}
	result, err := call(name, course, email)
	if err != nil {
		return nil, ledgerError(err)
	}
	return result, nil
}

func callWithIDParam(rawParams json.RawMessage, call func(id uint64) (any, error)) (any, *rpckit.Error) {
	id, err := rpckit.DecodeUint64Param(rawParams)
	if err != nil {
		return nil, rpckit.InvalidParams()
	}
	result, err := call(id)
	if err != nil {
		return nil, ledgerError(err)
	}
	return result, nil
}

func ledgerError(err error) *rpckit.Error {
	classified := ledgerusecase.Classify(err)
	return rpckit.KindError(CodeForKind(classified.Kind), string(classified.Kind), classified.Message, err)
}
