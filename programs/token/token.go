// Package token keeps mints and holding accounts. It decodes the SPL token
// wire format produced by the solana-go-sdk builders (InitializeMint, MintTo)
// and by this package's own builders (InitializeAccount3, SetAuthority).
package token

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"mintgate/engine/actors"
	"mintgate/engine/runtime"
	"mintgate/state/accounts"
)

var (
	ErrInvalidInstruction        = errors.New("invalid token instruction")
	ErrInvalidAccountData        = errors.New("invalid token account data")
	ErrAlreadyInitialized        = errors.New("token account already initialized")
	ErrUninitializedState        = errors.New("token state is uninitialized")
	ErrIncorrectProgramID        = errors.New("account not owned by the token program")
	ErrOwnerMismatch             = errors.New("owner does not match")
	ErrMissingSignature          = errors.New("authority did not sign")
	ErrMintAuthorityDisabled     = errors.New("this token's supply is fixed and new tokens cannot be minted")
	ErrMintMismatch              = errors.New("account not associated with this mint")
	ErrOverflow                  = errors.New("operation overflowed")
	ErrAuthorityTypeNotSupported = errors.New("authority type not supported")
)

type Program struct{}

var _ runtime.Program = Program{}

func (Program) ID() common.PublicKey {
	return actors.TokenProgramID
}

func (p Program) Process(ctx *runtime.Context, data []byte) error {
	if len(data) == 0 {
		return ErrInvalidInstruction
	}
	switch data[0] {
	case initializeMint:
		return p.initializeMint(ctx, data[1:])
	case initializeAccount3:
		return p.initializeAccount3(ctx, data[1:])
	case mintTo:
		if len(data) < 9 {
			return ErrInvalidInstruction
		}
		return p.mintTo(ctx, binary.LittleEndian.Uint64(data[1:9]))
	case setAuthority:
		return p.setAuthority(ctx, data[1:])
	default:
		return fmt.Errorf("%w: tag %d", ErrInvalidInstruction, data[0])
	}
}

// load returns a token-owned account.
func load(ctx *runtime.Context, addr common.PublicKey) (accounts.Account, error) {
	acc, err := ctx.Load(addr)
	if err != nil {
		return acc, err
	}
	if acc.Owner != actors.TokenProgramID {
		return acc, fmt.Errorf("%w: %s", ErrIncorrectProgramID, addr.ToBase58())
	}
	return acc, nil
}

func loadMint(ctx *runtime.Context, addr common.PublicKey) (accounts.Account, Mint, error) {
	acc, err := load(ctx, addr)
	if err != nil {
		return acc, Mint{}, err
	}
	m, err := DecodeMint(acc.Data)
	if err != nil {
		return acc, m, err
	}
	if !m.IsInitialized {
		return acc, m, fmt.Errorf("%w: mint %s", ErrUninitializedState, addr.ToBase58())
	}
	return acc, m, nil
}

func store(ctx *runtime.Context, addr common.PublicKey, acc accounts.Account, state interface{}) error {
	data, err := encode(state, len(acc.Data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAccountData, err.Error())
	}
	acc.Data = data
	return ctx.Store(addr, acc)
}

// initializeMint: [decimals][authority 32][freeze option][freeze 32]
func (Program) initializeMint(ctx *runtime.Context, data []byte) error {
	if len(data) < 34 {
		return ErrInvalidInstruction
	}
	mintKey, err := ctx.Key(0)
	if err != nil {
		return err
	}
	acc, err := load(ctx, mintKey)
	if err != nil {
		return err
	}
	if len(acc.Data) < MintSize {
		return ErrInvalidAccountData
	}
	if m, err := DecodeMint(acc.Data); err != nil || m.IsInitialized {
		return fmt.Errorf("%w: mint %s", ErrAlreadyInitialized, mintKey.ToBase58())
	}
	m := Mint{
		HasMintAuthority: true,
		MintAuthority:    common.PublicKeyFromBytes(data[1:33]),
		Decimals:         data[0],
		IsInitialized:    true,
	}
	if data[33] == 1 {
		if len(data) < 66 {
			return ErrInvalidInstruction
		}
		m.HasFreezeAuthority = true
		m.FreezeAuthority = common.PublicKeyFromBytes(data[34:66])
	}
	return store(ctx, mintKey, acc, m)
}

// initializeAccount3: [owner 32]
func (Program) initializeAccount3(ctx *runtime.Context, data []byte) error {
	if len(data) < 32 {
		return ErrInvalidInstruction
	}
	keys, err := ctx.Keys(2)
	if err != nil {
		return err
	}
	acc, err := load(ctx, keys[0])
	if err != nil {
		return err
	}
	if len(acc.Data) < AccountSize {
		return ErrInvalidAccountData
	}
	if a, err := DecodeAccount(acc.Data); err != nil || a.IsInitialized {
		return fmt.Errorf("%w: account %s", ErrAlreadyInitialized, keys[0].ToBase58())
	}
	if _, _, err = loadMint(ctx, keys[1]); err != nil {
		return err
	}
	return store(ctx, keys[0], acc, Account{
		Mint:          keys[1],
		Owner:         common.PublicKeyFromBytes(data[:32]),
		IsInitialized: true,
	})
}

func (Program) mintTo(ctx *runtime.Context, amount uint64) error {
	keys, err := ctx.Keys(3)
	if err != nil {
		return err
	}
	mintKey, destKey, authKey := keys[0], keys[1], keys[2]
	mintAcc, m, err := loadMint(ctx, mintKey)
	if err != nil {
		return err
	}
	if !m.HasMintAuthority {
		return ErrMintAuthorityDisabled
	}
	if m.MintAuthority != authKey {
		return fmt.Errorf("%w: mint authority is %s", ErrOwnerMismatch, m.MintAuthority.ToBase58())
	}
	if !ctx.IsSigner(authKey) {
		return ErrMissingSignature
	}
	destAcc, err := load(ctx, destKey)
	if err != nil {
		return err
	}
	dest, err := DecodeAccount(destAcc.Data)
	if err != nil {
		return err
	}
	if !dest.IsInitialized {
		return fmt.Errorf("%w: account %s", ErrUninitializedState, destKey.ToBase58())
	}
	if dest.Mint != mintKey {
		return ErrMintMismatch
	}
	if m.Supply+amount < m.Supply || dest.Amount+amount < dest.Amount {
		return ErrOverflow
	}
	m.Supply += amount
	dest.Amount += amount
	if err = store(ctx, mintKey, mintAcc, m); err != nil {
		return err
	}
	return store(ctx, destKey, destAcc, dest)
}

// setAuthority: [authority type][new option][new 32]
func (Program) setAuthority(ctx *runtime.Context, data []byte) error {
	if len(data) < 2 {
		return ErrInvalidInstruction
	}
	keys, err := ctx.Keys(2)
	if err != nil {
		return err
	}
	var next *common.PublicKey
	if data[1] == 1 {
		if len(data) < 34 {
			return ErrInvalidInstruction
		}
		k := common.PublicKeyFromBytes(data[2:34])
		next = &k
	}
	acc, m, err := loadMint(ctx, keys[0])
	if err != nil {
		return err
	}
	var has *bool
	var current *common.PublicKey
	switch AuthorityType(data[0]) {
	case AuthorityMintTokens:
		has, current = &m.HasMintAuthority, &m.MintAuthority
	case AuthorityFreezeAccount:
		has, current = &m.HasFreezeAuthority, &m.FreezeAuthority
	default:
		return ErrAuthorityTypeNotSupported
	}
	if !*has {
		return ErrMintAuthorityDisabled
	}
	if *current != keys[1] {
		return fmt.Errorf("%w: authority is %s", ErrOwnerMismatch, current.ToBase58())
	}
	if !ctx.IsSigner(keys[1]) {
		return ErrMissingSignature
	}
	if next == nil {
		*has, *current = false, common.PublicKey{}
	} else {
		*current = *next
	}
	return store(ctx, keys[0], acc, m)
}
