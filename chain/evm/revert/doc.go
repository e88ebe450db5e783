// Package revert turns EVM revert data into the human readable strings scenario bodies match
// against.
//
// The rendering follows the hardhat chain client, which scenario suites were written against:
//
//	custom error 'NoSelfTransfer()'
//	custom error 'BadAsset(0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed)'
//	reverted with reason string 'insufficient balance'
//	reverted with panic code 0x11
//
// Matching is exact. Use Decoder.Expect in scenario bodies:
//
//	err := albert.TransferAsset(ctx, albert.Address(), base.Address(), amount)
//	if err := dec.Expect(err, "custom error 'NoSelfTransfer()'"); err != nil {
//		return nil, err
//	}
package revert
