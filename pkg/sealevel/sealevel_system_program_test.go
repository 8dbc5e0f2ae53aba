package sealevel

import (
	"testing"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

func systemProgramAcct() accounts.Account {
	return accounts.Account{Key: SystemProgramAddr, Lamports: 1, Data: make([]byte, 0), Owner: NativeLoaderAddr, Executable: true}
}

func TestExecute_Tx_System_Program_CreateAccount_Success(t *testing.T) {
	fundingAcctPrivateKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	fundingPubkey := fundingAcctPrivateKey.PublicKey()
	fundingAcct := accounts.Account{Key: fundingPubkey, Lamports: 10000, Data: make([]byte, 0), Owner: SystemProgramAddr}

	newAcctPrivateKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	newPubkey := newAcctPrivateKey.PublicKey()
	newAcct := accounts.Account{Key: newPubkey, Lamports: 0, Data: make([]byte, 0), Owner: SystemProgramAddr}

	instr := NewCreateAccountInstruction(fundingPubkey, newPubkey, 1234, 1234, BpfLoaderUpgradeableAddr)

	execCtx := newTestExecCtx([]accounts.Account{systemProgramAcct(), fundingAcct, newAcct}, 10000)
	txCtx := execCtx.TransactionContext

	instructionAccts := instructionAcctsFromAccountMetas(instr.Accounts, txCtx.Accounts)

	err = execCtx.ProcessInstruction(instr.Data, instructionAccts, []uint64{0})
	assert.NoError(t, err)

	newAcctPost, err := txCtx.Accounts.GetAccount(2)
	assert.NoError(t, err)

	assert.Equal(t, uint64(1234), newAcctPost.Lamports)
	assert.Equal(t, 1234, len(newAcctPost.Data))
	assert.Equal(t, BpfLoaderUpgradeableAddr, newAcctPost.Owner)

	fundingAcctPost, err := txCtx.Accounts.GetAccount(1)
	assert.NoError(t, err)
	assert.Equal(t, uint64(10000-1234), fundingAcctPost.Lamports)
}

func TestExecute_Tx_System_Program_Transfer_Success(t *testing.T) {
	senderPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	senderPubkey := senderPrivkey.PublicKey()
	senderAcct := accounts.Account{Key: senderPubkey, Lamports: 100000000, Data: make([]byte, 0), Owner: SystemProgramAddr}

	receiverPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	receiverPubkey := receiverPrivkey.PublicKey()
	receiverAcct := accounts.Account{Key: receiverPubkey, Lamports: 100000000, Data: make([]byte, 0), Owner: SystemProgramAddr}

	instr := NewTransferInstruction(senderPubkey, receiverPubkey, 42000)

	execCtx := newTestExecCtx([]accounts.Account{systemProgramAcct(), senderAcct, receiverAcct}, 10000)
	txCtx := execCtx.TransactionContext

	instructionAccts := instructionAcctsFromAccountMetas(instr.Accounts, txCtx.Accounts)

	err = execCtx.ProcessInstruction(instr.Data, instructionAccts, []uint64{0})
	assert.NoError(t, err)

	senderPost, err := txCtx.Accounts.GetAccount(1)
	assert.NoError(t, err)
	assert.Equal(t, uint64(100000000-42000), senderPost.Lamports)

	receiverPost, err := txCtx.Accounts.GetAccount(2)
	assert.NoError(t, err)
	assert.Equal(t, uint64(100000000+42000), receiverPost.Lamports)

	// transfer costs exactly the system program baseline
	assert.Equal(t, uint64(150), execCtx.ComputeMeter.Used())
}

func TestExecute_Tx_System_Program_Transfer_InsufficientFunds(t *testing.T) {
	senderPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	senderPubkey := senderPrivkey.PublicKey()
	senderAcct := accounts.Account{Key: senderPubkey, Lamports: 100, Data: make([]byte, 0), Owner: SystemProgramAddr}

	receiverPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	receiverPubkey := receiverPrivkey.PublicKey()
	receiverAcct := accounts.Account{Key: receiverPubkey, Lamports: 0, Data: make([]byte, 0), Owner: SystemProgramAddr}

	instr := NewTransferInstruction(senderPubkey, receiverPubkey, 42000)

	execCtx := newTestExecCtx([]accounts.Account{systemProgramAcct(), senderAcct, receiverAcct}, 10000)
	txCtx := execCtx.TransactionContext

	instructionAccts := instructionAcctsFromAccountMetas(instr.Accounts, txCtx.Accounts)

	err = execCtx.ProcessInstruction(instr.Data, instructionAccts, []uint64{0})
	assert.ErrorIs(t, err, SystemProgErrResultWithNegativeLamports)

	code, ok := CustomErrCode(err)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), code)

	// balances unchanged on failure
	senderPost, err := txCtx.Accounts.GetAccount(1)
	assert.NoError(t, err)
	assert.Equal(t, uint64(100), senderPost.Lamports)
}

func TestExecute_Tx_System_Program_Transfer_MissingSignature(t *testing.T) {
	senderPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	senderPubkey := senderPrivkey.PublicKey()
	senderAcct := accounts.Account{Key: senderPubkey, Lamports: 100000, Data: make([]byte, 0), Owner: SystemProgramAddr}

	receiverPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	receiverPubkey := receiverPrivkey.PublicKey()
	receiverAcct := accounts.Account{Key: receiverPubkey, Lamports: 0, Data: make([]byte, 0), Owner: SystemProgramAddr}

	instr := NewTransferInstruction(senderPubkey, receiverPubkey, 42000)
	instr.Accounts[0].IsSigner = false

	execCtx := newTestExecCtx([]accounts.Account{systemProgramAcct(), senderAcct, receiverAcct}, 10000)
	txCtx := execCtx.TransactionContext

	instructionAccts := instructionAcctsFromAccountMetas(instr.Accounts, txCtx.Accounts)

	err = execCtx.ProcessInstruction(instr.Data, instructionAccts, []uint64{0})
	assert.ErrorIs(t, err, InstrErrMissingRequiredSignature)
}

func TestExecute_Tx_System_Program_Transfer_ReadonlyReceiver(t *testing.T) {
	senderPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	senderPubkey := senderPrivkey.PublicKey()
	senderAcct := accounts.Account{Key: senderPubkey, Lamports: 100000, Data: make([]byte, 0), Owner: SystemProgramAddr}

	receiverPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	receiverPubkey := receiverPrivkey.PublicKey()
	receiverAcct := accounts.Account{Key: receiverPubkey, Lamports: 0, Data: make([]byte, 0), Owner: SystemProgramAddr}

	instr := NewTransferInstruction(senderPubkey, receiverPubkey, 42000)
	instr.Accounts[1].IsWritable = false

	execCtx := newTestExecCtx([]accounts.Account{systemProgramAcct(), senderAcct, receiverAcct}, 10000)
	txCtx := execCtx.TransactionContext

	instructionAccts := instructionAcctsFromAccountMetas(instr.Accounts, txCtx.Accounts)

	err = execCtx.ProcessInstruction(instr.Data, instructionAccts, []uint64{0})
	assert.ErrorIs(t, err, InstrErrReadonlyLamportChange)
}

func TestExecute_Tx_System_Program_Assign_Success(t *testing.T) {
	ownedPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	ownedPubkey := ownedPrivkey.PublicKey()
	ownedAcct := accounts.Account{Key: ownedPubkey, Lamports: 100, Data: make([]byte, 0), Owner: SystemProgramAddr}

	instr := NewAssignInstruction(ownedPubkey, BpfLoaderUpgradeableAddr)

	execCtx := newTestExecCtx([]accounts.Account{systemProgramAcct(), ownedAcct}, 10000)
	txCtx := execCtx.TransactionContext

	instructionAccts := instructionAcctsFromAccountMetas(instr.Accounts, txCtx.Accounts)

	err = execCtx.ProcessInstruction(instr.Data, instructionAccts, []uint64{0})
	assert.NoError(t, err)

	ownedPost, err := txCtx.Accounts.GetAccount(1)
	assert.NoError(t, err)
	assert.Equal(t, BpfLoaderUpgradeableAddr, ownedPost.Owner)
}

func TestExecute_Tx_System_Program_Allocate_AlreadyInUse(t *testing.T) {
	ownedPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	ownedPubkey := ownedPrivkey.PublicKey()
	ownedAcct := accounts.Account{Key: ownedPubkey, Lamports: 100, Data: make([]byte, 12), Owner: SystemProgramAddr}

	instr := NewAllocateInstruction(ownedPubkey, 100)

	execCtx := newTestExecCtx([]accounts.Account{systemProgramAcct(), ownedAcct}, 10000)
	txCtx := execCtx.TransactionContext

	instructionAccts := instructionAcctsFromAccountMetas(instr.Accounts, txCtx.Accounts)

	err = execCtx.ProcessInstruction(instr.Data, instructionAccts, []uint64{0})
	assert.ErrorIs(t, err, SystemProgErrAccountAlreadyInUse)
}

func TestExecute_Tx_System_Program_UnknownInstruction(t *testing.T) {
	acctPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	acctPubkey := acctPrivkey.PublicKey()
	acct := accounts.Account{Key: acctPubkey, Lamports: 100, Data: make([]byte, 0), Owner: SystemProgramAddr}

	execCtx := newTestExecCtx([]accounts.Account{systemProgramAcct(), acct}, 10000)
	txCtx := execCtx.TransactionContext

	acctMetas := []AccountMeta{{Pubkey: acctPubkey, IsSigner: true, IsWritable: true}}
	instructionAccts := instructionAcctsFromAccountMetas(acctMetas, txCtx.Accounts)

	err = execCtx.ProcessInstruction([]byte{0xff, 0xff, 0xff, 0xff}, instructionAccts, []uint64{0})
	assert.ErrorIs(t, err, InstrErrInvalidInstructionData)
}

func TestExecute_Tx_UnregisteredProgram(t *testing.T) {
	programPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	programPubkey := programPrivkey.PublicKey()
	programAcct := accounts.Account{Key: programPubkey, Lamports: 1, Data: make([]byte, 0), Owner: NativeLoaderAddr, Executable: true}

	acctPrivkey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	acctPubkey := acctPrivkey.PublicKey()
	acct := accounts.Account{Key: acctPubkey, Lamports: 100, Data: make([]byte, 0), Owner: SystemProgramAddr}

	execCtx := newTestExecCtx([]accounts.Account{programAcct, acct}, 10000)
	txCtx := execCtx.TransactionContext

	acctMetas := []AccountMeta{{Pubkey: acctPubkey, IsSigner: true, IsWritable: true}}
	instructionAccts := instructionAcctsFromAccountMetas(acctMetas, txCtx.Accounts)

	err = execCtx.ProcessInstruction([]byte{0, 0, 0, 0}, instructionAccts, []uint64{0})
	assert.ErrorIs(t, err, InstrErrUnsupportedProgramId)
}
