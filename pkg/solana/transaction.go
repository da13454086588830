package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

var ErrTransactionTooLarge = errors.New("transaction exceeds max size")

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

// Message is a legacy transaction message.
type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

// Transaction is an unsigned legacy transaction. Signature slots are
// allocated for every required signer and left zeroed.
type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles instructions into an unsigned legacy transaction
// paid for by payer.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	set := newAccountSet()
	set.add(AccountMeta{PublicKey: payer, IsSigner: true, IsWritable: true, isPayer: true})
	for _, ix := range instructions {
		set.add(AccountMeta{PublicKey: ix.Program, isProgram: true})
		for _, account := range ix.Accounts {
			set.add(account)
		}
	}

	accounts := set.sorted()

	var m Message
	index := make(map[string]byte, len(accounts))
	for i, account := range accounts {
		m.Accounts = append(m.Accounts, account.PublicKey)
		index[string(account.PublicKey)] = byte(i)

		switch {
		case account.IsSigner && account.IsWritable:
			m.Header.NumSignatures++
		case account.IsSigner:
			m.Header.NumSignatures++
			m.Header.NumReadonlySigned++
		case !account.IsWritable:
			m.Header.NumReadOnly++
		}
	}

	for _, ix := range instructions {
		compiled := CompiledInstruction{
			ProgramIndex: index[string(normalizeKey(ix.Program))],
			Accounts:     make([]byte, 0, len(ix.Accounts)),
			Data:         ix.Data,
		}
		for _, account := range ix.Accounts {
			compiled.Accounts = append(compiled.Accounts, index[string(normalizeKey(account.PublicKey))])
		}
		m.Instructions = append(m.Instructions, compiled)
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// Signers returns the accounts that must sign, in signature slot order.
func (t *Transaction) Signers() []ed25519.PublicKey {
	return t.Message.Accounts[:t.Message.Header.NumSignatures]
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// Validate checks the serialized transaction fits in a single packet.
func (t *Transaction) Validate() error {
	if size := len(t.Marshal()); size > MaxTransactionSize {
		return errors.Wrapf(ErrTransactionTooLarge, "%d bytes", size)
	}
	return nil
}

func (t *Transaction) String() string {
	var sb strings.Builder
	m := t.Message

	fmt.Fprintln(&sb, "Signatures:")
	for i, sig := range t.Signatures {
		fmt.Fprintf(&sb, "  %d: %s\n", i, base58.Encode(sig[:]))
	}
	fmt.Fprintln(&sb, "Message:")
	fmt.Fprintf(
		&sb,
		"  Header: signatures=%d readonly_signed=%d readonly=%d\n",
		m.Header.NumSignatures,
		m.Header.NumReadonlySigned,
		m.Header.NumReadOnly,
	)
	fmt.Fprintln(&sb, "  Accounts:")
	for i, account := range m.Accounts {
		fmt.Fprintf(&sb, "    %d: %s\n", i, base58.Encode(account))
	}
	fmt.Fprintf(&sb, "  RecentBlockhash: %s\n", base58.Encode(m.RecentBlockhash[:]))
	fmt.Fprintln(&sb, "  Instructions:")
	for i, ix := range m.Instructions {
		fmt.Fprintf(&sb, "    %d: program=%d accounts=%v data=%x\n", i, ix.ProgramIndex, ix.Accounts, ix.Data)
	}
	return sb.String()
}

// accountSet merges repeated accounts, keeping the most permissive flags
// seen for each key.
type accountSet struct {
	order []string
	metas map[string]*AccountMeta
}

func newAccountSet() *accountSet {
	return &accountSet{metas: make(map[string]*AccountMeta)}
}

func (s *accountSet) add(account AccountMeta) {
	account.PublicKey = normalizeKey(account.PublicKey)
	key := string(account.PublicKey)

	existing, ok := s.metas[key]
	if !ok {
		s.order = append(s.order, key)
		s.metas[key] = &account
		return
	}

	existing.IsSigner = existing.IsSigner || account.IsSigner
	existing.IsWritable = existing.IsWritable || account.IsWritable
	existing.isPayer = existing.isPayer || account.isPayer
}

func (s *accountSet) sorted() []AccountMeta {
	accounts := make([]AccountMeta, 0, len(s.order))
	for _, key := range s.order {
		accounts = append(accounts, *s.metas[key])
	}
	sortAccountMetas(accounts)
	return accounts
}

// normalizeKey maps an unset key to the zero address.
func normalizeKey(key ed25519.PublicKey) ed25519.PublicKey {
	if len(key) == 0 {
		return make(ed25519.PublicKey, ed25519.PublicKeySize)
	}
	return key
}
