package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mario-areias/padding-oracle/attack"
	"github.com/mario-areias/padding-oracle/cbc"
	"github.com/mario-areias/padding-oracle/internal/config"
	"github.com/mario-areias/padding-oracle/internal/helpers"
	"github.com/mario-areias/padding-oracle/key"
	"github.com/mario-areias/padding-oracle/oracle"
)

func main() {
	cfg := config.Load()

	remote := flag.String("remote", "", "base URL of a remote oracle (oracled); empty runs a local oracle")
	encoded := flag.String("ciphertext", "", "base64 ciphertext to attack on the remote oracle instead of its /challenge")
	blockSize := flag.Int("block-size", attack.DefaultBlockSize, "block size of the remote cipher, used with -ciphertext")
	cipherName := flag.String("cipher", cfg.Oracle.Cipher, "local cipher: aes or blowfish")
	verify := flag.String("verify", cfg.Attack.Verify, "last byte verification: none or adjacent")
	blockWorkers := flag.Int("block-workers", cfg.Attack.BlockWorkers, "blocks attacked concurrently")
	candidateWorkers := flag.Int("candidate-workers", cfg.Attack.CandidateWorkers, "candidate bytes tried concurrently")
	debug := flag.Bool("debug", cfg.Attack.Debug, "log attack progress")
	flag.Parse()

	cfg.Oracle.Cipher = *cipherName
	cfg.Attack.Verify = *verify
	cfg.Attack.BlockWorkers = *blockWorkers
	cfg.Attack.CandidateWorkers = *candidateWorkers
	cfg.Attack.Debug = *debug

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := helpers.NewWriterLogger("attack", os.Stderr, cfg.Attack.Debug)

	var err error
	if *remote != "" {
		err = runRemote(ctx, remoteTarget{url: *remote, ciphertext: *encoded, blockSize: *blockSize}, cfg, logger, os.Stdout)
	} else {
		err = runLocal(ctx, cfg, logger, os.Stdin, os.Stdout)
	}
	if err != nil {
		log.Fatalf("Attack failed: %v", err)
	}
}

// runLocal asks for a message, encrypts it under a random IV (and a random key unless one is
// configured) and attacks it through an oracle holding the same key and IV.
func runLocal(ctx context.Context, cfg *config.Config, logger *helpers.Logger, in io.Reader, out io.Writer) error {
	k, err := key.Parse(cfg.Oracle.Key)
	if err != nil {
		return err
	}
	c, err := cbc.ByName(cfg.Oracle.Cipher, k)
	if err != nil {
		return err
	}
	o := oracle.NewRandomLocal(c)

	fmt.Fprintf(out, "Your message to be encrypted (longer than %d bytes, the first block can't be recovered):\n", c.BlockSize())
	message, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	message = strings.TrimRight(message, "\r\n")

	encrypted, err := o.Encrypt([]byte(message))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, strings.Repeat("-", 64))
	fmt.Fprintf(out, "Encrypted message: %s\n", base64.StdEncoding.EncodeToString(encrypted))

	return recoverAndPrint(ctx, encrypted, oracle.NewCounting(o), c.BlockSize(), cfg, logger, out)
}

type remoteTarget struct {
	url string
	// ciphertext is base64. When empty the oracle's /challenge is attacked.
	ciphertext string
	blockSize  int
}

// runRemote attacks a ciphertext through an oracled instance.
func runRemote(ctx context.Context, target remoteTarget, cfg *config.Config, logger *helpers.Logger, out io.Writer) error {
	opts := []oracle.HTTPOption{
		oracle.WithRateLimit(cfg.Oracle.Rate, cfg.Attack.CandidateWorkers),
		oracle.WithRetries(cfg.Oracle.Retries, 50*time.Millisecond),
		oracle.WithHTTPClient(&http.Client{Timeout: cfg.Oracle.Timeout}),
	}

	if target.ciphertext != "" {
		encrypted, err := base64.StdEncoding.DecodeString(target.ciphertext)
		if err != nil {
			return fmt.Errorf("invalid ciphertext: %w", err)
		}
		o := oracle.NewHTTP(target.url, append(opts, oracle.WithRemoteBlockSize(target.blockSize))...)
		return recoverAndPrint(ctx, encrypted, oracle.NewCounting(o), target.blockSize, cfg, logger, out)
	}

	o := oracle.NewHTTP(target.url, opts...)
	encrypted, err := o.Challenge(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Challenge: %s\n", base64.StdEncoding.EncodeToString(encrypted))

	return recoverAndPrint(ctx, encrypted, oracle.NewCounting(o), o.BlockSize(), cfg, logger, out)
}

func recoverAndPrint(ctx context.Context, encrypted []byte, o *oracle.Counting, blockSize int, cfg *config.Config, logger *helpers.Logger, out io.Writer) error {
	v, err := attack.ParseVerification(cfg.Attack.Verify)
	if err != nil {
		return err
	}

	decrypted, err := attack.RecoverPlaintext(ctx, encrypted, o, blockSize,
		attack.WithVerification(v),
		attack.WithBlockWorkers(cfg.Attack.BlockWorkers),
		attack.WithCandidateWorkers(cfg.Attack.CandidateWorkers),
		attack.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	// strip the padding when it looks right, the raw bytes are still useful otherwise
	if unpadded, err := cbc.RemovePadding(decrypted, blockSize); err == nil {
		decrypted = unpadded
	} else {
		logger.Warn("recovered plaintext has no valid padding, printing it as is")
	}

	fmt.Fprintln(out, strings.Repeat("-", 64))
	fmt.Fprintf(out, "Decrypted message: %q\n", decrypted[blockSize:])
	fmt.Fprintf(out, "Oracle queries: %d\n", o.Queries())
	fmt.Fprintln(out, strings.Repeat("=", 64))
	fmt.Fprintf(out, "The first %d bytes block is not decrypted because the IV is unknown.\n", blockSize)
	return nil
}
