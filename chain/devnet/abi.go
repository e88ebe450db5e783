package devnet

import (
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/smartcontractkit/comet-scenarios/chain/evm/revert"
)

// CometErrorsABI is the custom error section of the Comet ABI.
const CometErrorsABI = `[
	{"type":"error","name":"Absurd","inputs":[]},
	{"type":"error","name":"AlreadyInitialized","inputs":[]},
	{"type":"error","name":"BadAmount","inputs":[]},
	{"type":"error","name":"BadAsset","inputs":[]},
	{"type":"error","name":"BadDecimals","inputs":[]},
	{"type":"error","name":"BadDiscount","inputs":[]},
	{"type":"error","name":"BadMinimum","inputs":[]},
	{"type":"error","name":"BadNonce","inputs":[]},
	{"type":"error","name":"BadPrice","inputs":[]},
	{"type":"error","name":"BadSignatory","inputs":[]},
	{"type":"error","name":"BorrowCFTooLarge","inputs":[]},
	{"type":"error","name":"BorrowTooSmall","inputs":[]},
	{"type":"error","name":"InsufficientReserves","inputs":[]},
	{"type":"error","name":"InvalidInt104","inputs":[]},
	{"type":"error","name":"InvalidUInt64","inputs":[]},
	{"type":"error","name":"NoSelfTransfer","inputs":[]},
	{"type":"error","name":"NotCollateralized","inputs":[]},
	{"type":"error","name":"NotForSale","inputs":[]},
	{"type":"error","name":"NotLiquidatable","inputs":[]},
	{"type":"error","name":"Paused","inputs":[]},
	{"type":"error","name":"SupplyCapExceeded","inputs":[]},
	{"type":"error","name":"TimestampTooLarge","inputs":[]},
	{"type":"error","name":"TooManyAssets","inputs":[]},
	{"type":"error","name":"TooMuchSlippage","inputs":[]},
	{"type":"error","name":"TransferInFailed","inputs":[]},
	{"type":"error","name":"TransferOutFailed","inputs":[]},
	{"type":"error","name":"Unauthorized","inputs":[]}
]`

// ConfiguratorErrorsABI is the custom error section of the Configurator ABI.
const ConfiguratorErrorsABI = `[
	{"type":"error","name":"AlreadyInitialized","inputs":[]},
	{"type":"error","name":"AssetDoesNotExist","inputs":[]},
	{"type":"error","name":"ConfigurationAlreadyExists","inputs":[]},
	{"type":"error","name":"InvalidAddress","inputs":[]},
	{"type":"error","name":"Unauthorized","inputs":[]}
]`

// Errors decodes the reverts of every contract deployed on a development chain.
var Errors = revert.MustNewDecoder(CometErrorsABI, ConfiguratorErrorsABI)

var stringType = mustType("string")

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}

	return typ
}

// customError returns the revert of a custom error without arguments.
func customError(name string) *revert.Error {
	e, err := Errors.New(name)
	if err != nil {
		panic(err)
	}

	return e
}

// reasonError returns the revert of require(false, reason).
func reasonError(reason string) *revert.Error {
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	if err != nil {
		panic(err)
	}
	data := append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...)

	return &revert.Error{Data: data, Reason: Errors.Decode(data)}
}

// panicError returns the revert of a solidity panic, such as 0x11 for arithmetic underflow.
func panicError(code byte) *revert.Error {
	data := make([]byte, 36)
	copy(data, []byte{0x4e, 0x48, 0x7b, 0x71})
	data[35] = code

	return &revert.Error{Data: data, Reason: Errors.Decode(data)}
}

// emptyRevert returns the revert of a call without return data, such as a call to an account
// without code.
func emptyRevert() *revert.Error {
	return &revert.Error{Reason: Errors.Decode(nil)}
}
