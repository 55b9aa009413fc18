package lorabi

import (
	"testing"

	"lor-chain/go-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAddStudentCall(t *testing.T) {
	data, err := PackAddStudent("Alice", "Math", "alice@email.com")
	require.NoError(t, err)

	call, err := DecodeCall(data)
	require.NoError(t, err)
	assert.Equal(t, MethodAddStudent, call.Method.Name)
	name, err := StringArg(call.Args, 0)
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)
}

func TestDecodeIDCall(t *testing.T) {
	data, err := PackApproveRecommendation(7)
	require.NoError(t, err)

	call, err := DecodeCall(data)
	require.NoError(t, err)
	assert.Equal(t, MethodApproveRecommendation, call.Method.Name)
	id, err := Uint64Arg(call.Args, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
}

func TestDecodeCallRejectsGarbage(t *testing.T) {
	_, err := DecodeCall([]byte{0x01})
	require.Error(t, err)
	_, err = DecodeCall([]byte{0xde, 0xad, 0xbe, 0xef})
	require.Error(t, err)
}

func TestStudentOutputDecodes(t *testing.T) {
	want := models.Student{ID: 3, Name: "Bob", Course: "Physics", Email: "bob@email.com", Requested: true}
	out, err := PackStudentOutput(want)
	require.NoError(t, err)

	got, err := UnpackStudent(3, out)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRuntimeCodeNotEmpty(t *testing.T) {
	code := RuntimeCode()
	assert.Len(t, code, 5+4*5)
}
