package harness

import (
	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/gagliardetto/solana-go"
)

func testWallet(lamports uint64) accounts.Account {
	priv, err := solana.NewRandomPrivateKey()
	if err != nil {
		panic(err)
	}
	return accounts.Account{
		Key:      priv.PublicKey(),
		Lamports: lamports,
		Owner:    sealevel.SystemProgramAddr,
	}
}
