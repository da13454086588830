package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/staking-client/pkg/solana/shortvec"
)

// Legacy messages start with the signature count, which is below 128. A set
// high bit marks a versioned message.
const versionPrefixMask = 0x80

// Marshal returns the wire encoding of the transaction.
func (t Transaction) Marshal() []byte {
	var b bytes.Buffer

	writeLen(&b, len(t.Signatures))
	for _, sig := range t.Signatures {
		b.Write(sig[:])
	}
	b.Write(t.Message.Marshal())

	return b.Bytes()
}

// Unmarshal decodes a legacy transaction.
func (t *Transaction) Unmarshal(b []byte) error {
	r := &wireReader{buf: bytes.NewBuffer(b)}

	t.Signatures = make([]Signature, r.len("signature count"))
	for i := range t.Signatures {
		r.read(t.Signatures[i][:], "signature")
	}
	if r.err != nil {
		return r.err
	}

	return t.Message.Unmarshal(r.buf.Bytes())
}

// Marshal returns the message bytes an external signer signs over.
func (m Message) Marshal() []byte {
	var b bytes.Buffer

	b.Write([]byte{m.Header.NumSignatures, m.Header.NumReadonlySigned, m.Header.NumReadOnly})

	writeLen(&b, len(m.Accounts))
	for _, account := range m.Accounts {
		b.Write(account)
	}

	b.Write(m.RecentBlockhash[:])

	writeLen(&b, len(m.Instructions))
	for _, ix := range m.Instructions {
		b.WriteByte(ix.ProgramIndex)
		writeLen(&b, len(ix.Accounts))
		b.Write(ix.Accounts)
		writeLen(&b, len(ix.Data))
		b.Write(ix.Data)
	}

	return b.Bytes()
}

// Unmarshal decodes a legacy message, checking every account index it
// references.
func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty message")
	}
	if b[0]&versionPrefixMask != 0 {
		return errors.New("versioned messages not supported")
	}

	r := &wireReader{buf: bytes.NewBuffer(b)}

	m.Header.NumSignatures = r.byte("num signatures")
	m.Header.NumReadonlySigned = r.byte("num readonly signed")
	m.Header.NumReadOnly = r.byte("num readonly")

	m.Accounts = make([]ed25519.PublicKey, r.len("account count"))
	for i := range m.Accounts {
		m.Accounts[i] = make(ed25519.PublicKey, ed25519.PublicKeySize)
		r.read(m.Accounts[i], "account")
	}

	r.read(m.RecentBlockhash[:], "recent blockhash")

	m.Instructions = make([]CompiledInstruction, r.len("instruction count"))
	for i := range m.Instructions {
		ix := &m.Instructions[i]

		ix.ProgramIndex = r.byte("program index")
		ix.Accounts = make([]byte, r.len("instruction account count"))
		r.read(ix.Accounts, "instruction accounts")
		ix.Data = make([]byte, r.len("instruction data length"))
		r.read(ix.Data, "instruction data")
		if r.err != nil {
			return errors.Wrapf(r.err, "instruction %d", i)
		}

		if int(ix.ProgramIndex) >= len(m.Accounts) {
			return errors.Errorf("instruction %d: program index %d out of range", i, ix.ProgramIndex)
		}
		for _, index := range ix.Accounts {
			if int(index) >= len(m.Accounts) {
				return errors.Errorf("instruction %d: account index %d out of range", i, index)
			}
		}
	}

	return r.err
}

func writeLen(b *bytes.Buffer, n int) {
	// Lengths beyond a uint16 can't fit within MaxTransactionSize anyway.
	_, _ = shortvec.EncodeLen(b, n)
}

// wireReader reads fields in order and keeps the first failure, so a decode
// is a flat sequence of reads followed by a single error check.
type wireReader struct {
	buf *bytes.Buffer
	err error
}

func (r *wireReader) byte(field string) byte {
	if r.err != nil {
		return 0
	}

	v, err := r.buf.ReadByte()
	if err != nil {
		r.err = errors.Wrapf(err, "failed to read %s", field)
	}
	return v
}

func (r *wireReader) len(field string) int {
	if r.err != nil {
		return 0
	}

	n, err := shortvec.DecodeLen(r.buf)
	if err != nil {
		r.err = errors.Wrapf(err, "failed to read %s", field)
	}
	return n
}

func (r *wireReader) read(dst []byte, field string) {
	if r.err != nil {
		return
	}

	if _, err := io.ReadFull(r.buf, dst); err != nil {
		r.err = errors.Wrapf(err, "failed to read %s", field)
	}
}
