package solana

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProgramAddress(t *testing.T) {
	exceededSeed := make([]byte, maxSeedLength+1)
	maxSeed := make([]byte, maxSeedLength)

	// Vectors from the Solana SDK test suite, including its typo
	publicKey, err := base58.Decode("SeedPubey1111111111111111111111111111111111")
	require.NoError(t, err)
	programID, err := base58.Decode("BPFLoader1111111111111111111111111111111111")
	require.NoError(t, err)

	_, err = CreateProgramAddress(programID, exceededSeed)
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)
	_, err = CreateProgramAddress(programID, []byte("short seed"), exceededSeed)
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)

	_, err = CreateProgramAddress(programID, maxSeed)
	assert.NoError(t, err)

	cases := []struct {
		expected string
		input    [][]byte
	}{
		{
			expected: "3gF2KMe9KiC6FNVBmfg9i267aMPvK37FewCip4eGBFcT",
			input:    [][]byte{{}, {1}},
		},
		{
			expected: "7ytmC1nT1xY4RfxCV2ZgyA7UakC93do5ZdyhdF3EtPj7",
			input:    [][]byte{[]byte("☉")},
		},
		{
			expected: "HwRVBufQ4haG5XSgpspwKtNd3PC9GM9m1196uJW36vds",
			input:    [][]byte{[]byte("Talking"), []byte("Squirrels")},
		},
		{
			expected: "GUs5qLUfsEHkcMB9T38vjr18ypEhRuNWiePW2LoK4E3K",
			input:    [][]byte{publicKey},
		},
	}

	for _, tc := range cases {
		key, err := CreateProgramAddress(programID, tc.input...)
		assert.NoError(t, err)
		assert.Equal(t, tc.expected, base58.Encode(key))
	}

	a, err := CreateProgramAddress(programID, []byte("Talking"))
	assert.NoError(t, err)
	b, err := CreateProgramAddress(programID, []byte("Talking"), []byte("Squirrels"))
	assert.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestIsOnCurve(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	assert.True(t, isOnCurve(pub))

	assert.False(t, isOnCurve(pub[:31]))

	programID, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	derived, err := FindProgramAddress(programID, []byte("pool"))
	require.NoError(t, err)
	assert.False(t, isOnCurve(derived))
}

func TestFindProgramAddressAndBump(t *testing.T) {
	for i := 0; i < 100; i++ {
		programID, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		seeds := [][]byte{[]byte("wallet"), []byte("pool")}
		address, bump, err := FindProgramAddressAndBump(programID, seeds...)
		require.NoError(t, err)

		// The bump reproduces the address directly
		recreated, err := CreateProgramAddress(programID, append(seeds, []byte{bump})...)
		require.NoError(t, err)
		assert.EqualValues(t, address, recreated)

		// Caller seeds are left untouched
		assert.Len(t, seeds, 2)
	}

	tooMany := make([][]byte, maxSeeds)
	_, _, err := FindProgramAddressAndBump(make([]byte, 32), tooMany...)
	assert.Equal(t, ErrTooManySeeds, err)
}

func TestFindProgramAddressAndBump_Vectors(t *testing.T) {
	filled := func(b byte) []byte {
		return bytes.Repeat([]byte{b}, ed25519.PublicKeySize)
	}
	program, wallet, pool := filled(0x0a), filled(0x0b), filled(0x0c)

	for _, tc := range []struct {
		name     string
		program  []byte
		seeds    [][]byte
		expected string
		bump     uint8
	}{
		// Solana SDK vectors
		{
			name:     "sdk",
			program:  mustDecode(t, "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM"),
			seeds:    [][]byte{[]byte("Lil'"), []byte("Bits")},
			expected: "Bn9pAWUXWc5Kd849xTkQcHqiCbHUEizLFn4r5Cf8XYnd",
		},
		{
			name:     "sdk",
			program:  mustDecode(t, "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh"),
			seeds:    [][]byte{[]byte("Lil'"), []byte("Bits")},
			expected: "oDvUHiiGdMo31xYzjefAzUekWH8EbCKrxgs2FkyTs1S",
		},
		{
			name:     "sdk",
			program:  mustDecode(t, "2M59vuWgsiuHAqQVB6KvuXuaBCJR8138gMAm4uCuR6Du"),
			seeds:    [][]byte{[]byte("Lil'"), []byte("Bits")},
			expected: "E5dLtHAM353EPnHyuZ32sKREn26VW4Y8bzb2KQJTBHQh",
		},

		// Staking storage derivations
		{
			name:     "user storage",
			program:  program,
			seeds:    [][]byte{wallet, pool},
			expected: "8QHHZru4PuJXskjtYTZYDg9e6d7oT7aJhy9iUeK2sqqP",
			bump:     252,
		},
		{
			name:     "user storage with swapped seeds",
			program:  program,
			seeds:    [][]byte{pool, wallet},
			expected: "2qjYPg8q33LRjytUftRZJNyyCZQ8UY19bED3GobyaATv",
			bump:     255,
		},
		{
			name:     "pool signer",
			program:  program,
			seeds:    [][]byte{pool},
			expected: "5VyBHgpdH1vFqfD7CcBuMDLbvVUXcF5YzdmrhQFpptTX",
			bump:     254,
		},
	} {
		address, bump, err := FindProgramAddressAndBump(tc.program, tc.seeds...)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.expected, base58.Encode(address), tc.name)
		if tc.bump != 0 {
			assert.Equal(t, tc.bump, bump, tc.name)
		}
	}
}

func mustDecode(t *testing.T, s string) []byte {
	b, err := base58.Decode(s)
	require.NoError(t, err)
	return b
}
