// Package lorabi describes the recommendation ledger contract interface and
// encodes or decodes its calls.
package lorabi

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"lor-chain/go-backend/pkg/models"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	MethodAddStudent            = "addStudent"
	MethodRequestRecommendation = "requestRecommendation"
	MethodApproveRecommendation = "approveRecommendation"
	MethodGetStudent            = "getStudent"
	MethodStudentCount          = "studentCount"
)

const JSON = `[
  {"type":"function","name":"addStudent","stateMutability":"nonpayable",
   "inputs":[{"name":"name","type":"string"},{"name":"course","type":"string"},{"name":"email","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"requestRecommendation","stateMutability":"nonpayable",
   "inputs":[{"name":"id","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"approveRecommendation","stateMutability":"nonpayable",
   "inputs":[{"name":"id","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"getStudent","stateMutability":"view",
   "inputs":[{"name":"id","type":"uint256"}],
   "outputs":[{"name":"name","type":"string"},{"name":"course","type":"string"},{"name":"email","type":"string"},{"name":"requested","type":"bool"},{"name":"approved","type":"bool"}]},
  {"type":"function","name":"studentCount","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	parseOnce sync.Once
	parsed    abi.ABI
	parseErr  error
)

// ABI returns the parsed contract interface. JSON is a constant, so a parse
// failure is a programming error.
func ABI() abi.ABI {
	parseOnce.Do(func() {
		parsed, parseErr = abi.JSON(strings.NewReader(JSON))
	})
	if parseErr != nil {
		panic(fmt.Sprintf("lorabi: invalid contract abi: %v", parseErr))
	}
	return parsed
}

func Pack(method string, args ...any) ([]byte, error) {
	contract := ABI()
	return contract.Pack(method, args...)
}

func PackAddStudent(name, course, email string) ([]byte, error) {
	return Pack(MethodAddStudent, name, course, email)
}

func PackRequestRecommendation(id uint64) ([]byte, error) {
	return Pack(MethodRequestRecommendation, new(big.Int).SetUint64(id))
}

func PackApproveRecommendation(id uint64) ([]byte, error) {
	return Pack(MethodApproveRecommendation, new(big.Int).SetUint64(id))
}

func PackGetStudent(id uint64) ([]byte, error) {
	return Pack(MethodGetStudent, new(big.Int).SetUint64(id))
}

func PackStudentCount() ([]byte, error) {
	return Pack(MethodStudentCount)
}

// Call is decoded calldata.
type Call struct {
	Method *abi.Method
	Args   []any
}

func DecodeCall(data []byte) (Call, error) {
	if len(data) < 4 {
		return Call{}, errors.New("calldata too short")
	}
	contract := ABI()
	method, err := contract.MethodById(data[:4])
	if err != nil {
		return Call{}, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return Call{}, fmt.Errorf("decode %s arguments: %w", method.Name, err)
	}
	return Call{Method: method, Args: args}, nil
}

// Uint64Arg reads a uint256 argument that must fit in uint64.
func Uint64Arg(args []any, idx int) (uint64, error) {
	if idx >= len(args) {
		return 0, errors.New("missing argument")
	}
	value, ok := args[idx].(*big.Int)
	if !ok || value.Sign() < 0 || !value.IsUint64() {
		return 0, errors.New("argument is not a uint64")
	}
	return value.Uint64(), nil
}

func StringArg(args []any, idx int) (string, error) {
	if idx >= len(args) {
		return "", errors.New("missing argument")
	}
	value, ok := args[idx].(string)
	if !ok {
		return "", errors.New("argument is not a string")
	}
	return value, nil
}

func PackStudentOutput(s models.Student) ([]byte, error) {
	contract := ABI()
	return contract.Methods[MethodGetStudent].Outputs.Pack(s.Name, s.Course, s.Email, s.Requested, s.Approved)
}

func PackCountOutput(count uint64) ([]byte, error) {
	contract := ABI()
	return contract.Methods[MethodStudentCount].Outputs.Pack(new(big.Int).SetUint64(count))
}

func UnpackStudent(id uint64, data []byte) (models.Student, error) {
	contract := ABI()
	values, err := contract.Unpack(MethodGetStudent, data)
	if err != nil {
		return models.Student{}, err
	}
	if len(values) != 5 {
		return models.Student{}, fmt.Errorf("getStudent returned %d values", len(values))
	}
	student := models.Student{ID: id}
	var ok [5]bool
	student.Name, ok[0] = values[0].(string)
	student.Course, ok[1] = values[1].(string)
	student.Email, ok[2] = values[2].(string)
	student.Requested, ok[3] = values[3].(bool)
	student.Approved, ok[4] = values[4].(bool)
	for _, good := range ok {
		if !good {
			return models.Student{}, errors.New("getStudent returned unexpected types")
		}
	}
	return student, nil
}

func UnpackCount(data []byte) (uint64, error) {
	contract := ABI()
	values, err := contract.Unpack(MethodStudentCount, data)
	if err != nil {
		return 0, err
	}
	return Uint64Arg(values, 0)
}

// RuntimeCode is the code reported for a deployed in-process ledger: the
// solidity free memory pointer prologue followed by the method selectors.
func RuntimeCode() []byte {
	contract := ABI()
	code := []byte{0x60, 0x80, 0x60, 0x40, 0x52}
	for _, name := range []string{MethodAddStudent, MethodRequestRecommendation, MethodApproveRecommendation, MethodGetStudent, MethodStudentCount} {
		code = append(code, contract.Methods[name].ID...)
	}
	return code
}
