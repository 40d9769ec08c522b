package attack

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mario-areias/padding-oracle/cbc"
	"github.com/mario-areias/padding-oracle/internal/helpers"
	"github.com/mario-areias/padding-oracle/key"
	"github.com/mario-areias/padding-oracle/oracle"
)

var (
	testKey = key.NewKey([16]byte([]byte("128bitsforkeysss")))
	testIV  = []byte("9876543210abcdef")
)

func newAESOracle(t *testing.T) *oracle.Local {
	t.Helper()

	c, err := cbc.NewAES(testKey)
	if err != nil {
		t.Fatalf("Error creating cipher: %s", err)
	}
	return oracle.NewLocal(c, testIV)
}

func encrypt(t *testing.T, o *oracle.Local, plaintext []byte) []byte {
	t.Helper()

	encrypted, err := o.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Error encrypting: %s", err)
	}
	return encrypted
}

// checkRecovered compares everything past the first block with the padded plaintext.
func checkRecovered(t *testing.T, recovered, plaintext []byte, blockSize int) {
	t.Helper()

	padded := cbc.Pad(plaintext, blockSize)
	if len(recovered) != len(padded) {
		t.Fatalf("Recovered %d bytes, expected %d", len(recovered), len(padded))
	}
	if !bytes.Equal(recovered[:blockSize], make([]byte, blockSize)) {
		t.Errorf("First block should be zeros, got %x", recovered[:blockSize])
	}
	if !bytes.Equal(recovered[blockSize:], padded[blockSize:]) {
		t.Errorf("Got     : %q", recovered[blockSize:])
		t.Errorf("Expected: %q", padded[blockSize:])
	}
}

func TestPaddingOracle(t *testing.T) {
	o := newAESOracle(t)

	tests := []struct {
		name  string
		input string
		opts  []Option
	}{
		{
			name:  "Simple decryption test",
			input: "Let's test if this is working!",
			opts:  []Option{WithVerification(VerifyAdjacent)},
		},
		{
			name:  "Hello world",
			input: "HelloPaddingOracleWorld!",
			opts:  []Option{WithVerification(VerifyAdjacent)},
		},
		{
			name:  "Aligned plaintext gets a full padding block",
			input: "0123456789abcdef0123456789abcdef",
			opts:  []Option{WithVerification(VerifyAdjacent)},
		},
		{
			name:  "Block ending with a valid looking padding",
			input: "first block.....0123456789abcd\x02\x02last block",
			opts:  []Option{WithVerification(VerifyAdjacent)},
		},
		{
			name:  "Concurrent blocks and candidates",
			input: "Let's test if this attack works with a lot of goroutines!!",
			opts: []Option{
				WithVerification(VerifyAdjacent),
				WithBlockWorkers(4),
				WithCandidateWorkers(16),
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			encrypted := encrypt(t, o, []byte(test.input))

			recovered, err := RecoverPlaintext(context.Background(), encrypted, o, 16, test.opts...)
			if err != nil {
				t.Fatalf("Error recovering: %s", err)
			}
			checkRecovered(t, recovered, []byte(test.input), 16)
		})
	}
}

func TestPaddingOracleHelloWorld(t *testing.T) {
	o := newAESOracle(t)
	plaintext := []byte("HelloPaddingOracleWorld!")
	encrypted := encrypt(t, o, plaintext)

	recovered, err := RecoverPlaintext(context.Background(), encrypted, o, 16, WithVerification(VerifyAdjacent))
	if err != nil {
		t.Fatalf("Error recovering: %s", err)
	}

	unpadded, err := cbc.RemovePadding(recovered, 16)
	if err != nil {
		t.Fatalf("Error removing padding: %s", err)
	}
	if string(unpadded[16:]) != "leWorld!" {
		t.Errorf("Got %q", unpadded[16:])
	}
}

func TestPaddingOracleDeterministic(t *testing.T) {
	o := newAESOracle(t)
	encrypted := encrypt(t, o, []byte("Running twice gives the same answer"))

	first, err := RecoverPlaintext(context.Background(), encrypted, o, 16, WithVerification(VerifyAdjacent))
	if err != nil {
		t.Fatalf("Error recovering: %s", err)
	}
	second, err := RecoverPlaintext(context.Background(), encrypted, o, 16,
		WithVerification(VerifyAdjacent), WithCandidateWorkers(8), WithBlockWorkers(3))
	if err != nil {
		t.Fatalf("Error recovering: %s", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("Two runs differ:\n%x\n%x", first, second)
	}
}

func TestMinimumSize(t *testing.T) {
	o := newAESOracle(t)
	// 20 bytes pad to 32, one block we can't read and one we can
	encrypted := encrypt(t, o, []byte("exactly two blocks!!"))
	if len(encrypted) != 32 {
		t.Fatalf("Expected 32 bytes of ciphertext, got %d", len(encrypted))
	}

	recovered, err := RecoverPlaintext(context.Background(), encrypted, o, 16, WithVerification(VerifyAdjacent))
	if err != nil {
		t.Fatalf("Error recovering: %s", err)
	}
	checkRecovered(t, recovered, []byte("exactly two blocks!!"), 16)
}

func TestSingleBlock(t *testing.T) {
	c := oracle.NewCounting(newAESOracle(t))

	recovered, err := RecoverPlaintext(context.Background(), make([]byte, 16), c, 16)
	if err != nil {
		t.Fatalf("Error recovering: %s", err)
	}
	if !bytes.Equal(recovered, make([]byte, 16)) {
		t.Errorf("Expected a single zero block, got %x", recovered)
	}
	if c.Queries() != 0 {
		t.Errorf("Nothing to attack, yet %d queries were made", c.Queries())
	}
}

func TestInvalidInput(t *testing.T) {
	c := oracle.NewCounting(newAESOracle(t))

	for _, l := range []int{0, 1, 15, 17, 33} {
		_, err := RecoverPlaintext(context.Background(), make([]byte, l), c, 16)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%d bytes: expected ErrInvalidInput, got %v", l, err)
		}
	}
	if c.Queries() != 0 {
		t.Errorf("Expected no query before failing, got %d", c.Queries())
	}
}

func TestInvalidBlockSize(t *testing.T) {
	o := newAESOracle(t)

	if _, err := New(o, WithBlockSize(8)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected a mismatch with the oracle's cipher, got %v", err)
	}
	if _, err := New(oracle.Func(alwaysInvalid), WithBlockSize(0)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a zero block size, got %v", err)
	}
	if _, err := New(oracle.Func(alwaysInvalid), WithBlockSize(256)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a block size above 255, got %v", err)
	}
	if _, err := New(nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a nil oracle, got %v", err)
	}
}

func TestQueryBound(t *testing.T) {
	o := newAESOracle(t)
	// 'P' is not a padding byte, so the first round has a single valid candidate.
	encrypted := encrypt(t, o, []byte("0123456789abcdefABCDEFGHIJKLMNOP"))[:32]

	c := oracle.NewCounting(o)
	recovered, err := RecoverPlaintext(context.Background(), encrypted, c, 16)
	if err != nil {
		t.Fatalf("Error recovering: %s", err)
	}
	if string(recovered[16:]) != "ABCDEFGHIJKLMNOP" {
		t.Errorf("Got %q", recovered[16:])
	}

	if q := c.Queries(); q < 16 || q > 16*256 {
		t.Errorf("Expected between 16 and 4096 queries, got %d", q)
	}
}

func TestBlowfish(t *testing.T) {
	c, err := cbc.NewBlowfish(testKey)
	if err != nil {
		t.Fatalf("Error creating cipher: %s", err)
	}
	o := oracle.NewLocal(c, []byte("8bytesIV"))

	plaintext := []byte("Blowfish has 8 bytes blocks")
	encrypted := encrypt(t, o, plaintext)

	recovered, err := RecoverPlaintext(context.Background(), encrypted, o, 8, WithVerification(VerifyAdjacent), WithBlockWorkers(2))
	if err != nil {
		t.Fatalf("Error recovering: %s", err)
	}
	checkRecovered(t, recovered, plaintext, 8)
}

func TestOverHTTP(t *testing.T) {
	local := newAESOracle(t)
	s, err := oracle.NewServer(local, []byte("Attack me over HTTP"), helpers.NewWriterLogger("oracle", io.Discard, false))
	if err != nil {
		t.Fatalf("Error creating server: %s", err)
	}
	ts := httptest.NewServer(s)
	defer ts.Close()

	remote := oracle.NewHTTP(ts.URL, oracle.WithRetries(2, time.Millisecond))
	encrypted, err := remote.Challenge(context.Background())
	if err != nil {
		t.Fatalf("Error fetching challenge: %s", err)
	}

	recovered, err := RecoverPlaintext(context.Background(), encrypted, remote, remote.BlockSize(),
		WithVerification(VerifyAdjacent), WithCandidateWorkers(8))
	if err != nil {
		t.Fatalf("Error recovering: %s", err)
	}
	checkRecovered(t, recovered, []byte("Attack me over HTTP"), 16)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	o := newAESOracle(t)
	encrypted := encrypt(t, o, []byte("0123456789abcdefABCDEFGHIJKLMNOP"))[:32]

	_, err := RecoverPlaintext(context.Background(), encrypted, o, 16, WithLogger(helpers.NewWriterLogger("attack", &buf, true)))
	if err != nil {
		t.Fatalf("Error recovering: %s", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("block recovered [1 1]")) {
		t.Errorf("Missing progress line in %q", buf.String())
	}
}
