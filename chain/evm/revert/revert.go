package revert

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	// executionRevertedCode is the JSON-RPC error code nodes use for reverted calls.
	executionRevertedCode = 3

	noReason = "reverted without a reason"
)

var (
	ErrUnknownError   = errors.New("unknown custom error")
	ErrNotReverted    = errors.New("call did not revert")
	ErrRevertMismatch = errors.New("revert mismatch")

	panicSelector = []byte{0x4e, 0x48, 0x7b, 0x71}
)

type errorSelector [4]byte

// Error is a reverted call. It implements rpc.DataError so it can be handled like the error of a
// JSON-RPC client.
type Error struct {
	Data   []byte
	Reason string
}

var (
	_ rpc.DataError = (*Error)(nil)
	_ rpc.Error     = (*Error)(nil)
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}

	return "execution reverted: " + e.Reason
}

// ErrorCode implements rpc.Error.
func (e *Error) ErrorCode() int {
	return executionRevertedCode
}

// ErrorData implements rpc.DataError. The data is hex encoded as returned by nodes.
func (e *Error) ErrorData() any {
	return hexutil.Encode(e.Data)
}

// Decoder indexes custom errors of one or more contract ABIs by selector.
type Decoder struct {
	bySelector map[errorSelector]abi.Error
	byName     map[string]abi.Error
}

// NewDecoder builds a decoder from ABI JSON documents.
func NewDecoder(abiJSONs ...string) (*Decoder, error) {
	d := &Decoder{
		bySelector: make(map[errorSelector]abi.Error),
		byName:     make(map[string]abi.Error),
	}
	for i, j := range abiJSONs {
		a, err := abi.JSON(strings.NewReader(j))
		if err != nil {
			return nil, fmt.Errorf("parse ABI %d: %w", i, err)
		}
		for name, e := range a.Errors {
			var key errorSelector
			copy(key[:], e.ID[:4])
			d.bySelector[key] = e
			d.byName[name] = e
		}
	}

	return d, nil
}

// MustNewDecoder is NewDecoder that panics on error. Intended for ABIs embedded in the binary.
func MustNewDecoder(abiJSONs ...string) *Decoder {
	d, err := NewDecoder(abiJSONs...)
	if err != nil {
		panic(err)
	}

	return d
}

// Encode packs the custom error name with args into revert data.
func (d *Decoder) Encode(name string, args ...any) ([]byte, error) {
	e, ok := d.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownError, name)
	}
	packed, err := e.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", name, err)
	}

	return append(bytes.Clone(e.ID[:4]), packed...), nil
}

// New returns the revert of the custom error name with args, with its reason already decoded.
func (d *Decoder) New(name string, args ...any) (*Error, error) {
	data, err := d.Encode(name, args...)
	if err != nil {
		return nil, err
	}

	return &Error{Data: data, Reason: d.Decode(data)}, nil
}

// Decode renders revert data. Standard Error(string) and Panic(uint256) reverts are decoded
// without an ABI; unknown custom errors are rendered by selector.
func (d *Decoder) Decode(data []byte) string {
	if len(data) == 0 {
		return noReason
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return fmt.Sprintf("reverted with reason string '%s'", reason)
	}
	if len(data) == 36 && bytes.Equal(data[:4], panicSelector) {
		return fmt.Sprintf("reverted with panic code 0x%x", new(big.Int).SetBytes(data[4:]))
	}
	if len(data) < 4 {
		return "custom error 0x" + hex.EncodeToString(data)
	}

	var key errorSelector
	copy(key[:], data[:4])
	e, ok := d.bySelector[key]
	if !ok {
		return "custom error 0x" + hex.EncodeToString(data[:4])
	}
	vs, err := e.Inputs.Unpack(data[4:])
	if err != nil {
		return "custom error 0x" + hex.EncodeToString(data[:4])
	}
	args := make([]string, len(vs))
	for i, v := range vs {
		args[i] = fmt.Sprintf("%v", v)
	}

	return fmt.Sprintf("custom error '%s(%s)'", e.Name, strings.Join(args, ", "))
}

// Reason returns the decoded revert reason carried by err. The second result is false when err
// is not a revert.
func (d *Decoder) Reason(err error) (string, bool) {
	data, ok := Data(err)
	if !ok {
		return "", false
	}

	return d.Decode(data), true
}

// Expect returns nil iff err is a revert whose decoded reason is exactly want.
func (d *Decoder) Expect(err error, want string) error {
	if err == nil {
		return fmt.Errorf("%w: expected %q", ErrNotReverted, want)
	}
	got, ok := d.Reason(err)
	if !ok {
		return fmt.Errorf("%w: expected %q, got non-revert error: %w", ErrNotReverted, want, err)
	}
	if got != want {
		return fmt.Errorf("%w: expected %q, got %q", ErrRevertMismatch, want, got)
	}

	return nil
}

// Data extracts the raw revert data from err, unwrapping rpc.DataError.
func Data(err error) ([]byte, bool) {
	var d rpc.DataError
	if !errors.As(err, &d) {
		return nil, false
	}

	switch v := d.ErrorData().(type) {
	case []byte:
		return v, true
	case string:
		b, derr := hexutil.Decode(v)
		if derr != nil {
			return nil, false
		}

		return b, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}
