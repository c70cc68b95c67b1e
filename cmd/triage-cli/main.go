package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"github.com/alexch/msg-triage/internal/adapters/clifilter"
	"github.com/alexch/msg-triage/internal/core"
	"github.com/alexch/msg-triage/internal/di"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	logger *zap.Logger,
	flags *di.CLIFlags,
	filter *clifilter.Filter,
	classifier core.TextClassifier,
) error {
	defer logger.Sync()

	// Read the message from file or stdin
	var reader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", flags.InputFile))
		}
		defer file.Close()
		reader = file
		logger.Info("Reading message from file", zap.String("file", flags.InputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading message from stdin")
	}

	parsed, err := mail.ReadMessage(bufio.NewReader(reader))
	if err != nil {
		logger.Fatal("Failed to parse message", zap.Error(err))
	}

	bodyBytes, err := io.ReadAll(parsed.Body)
	if err != nil {
		logger.Fatal("Failed to read message body", zap.Error(err))
	}

	msg := &core.Message{
		ID:        messageID(parsed),
		Subject:   parsed.Header.Get("Subject"),
		Sender:    senderAddress(parsed),
		Preview:   string(bodyBytes),
		Timestamp: parsed.Header.Get("Date"),
	}

	if _, _, err := filter.ProcessMessage(context.Background(), msg); err != nil {
		return err
	}

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}

	return nil
}

func messageID(parsed *mail.Message) string {
	id := strings.Trim(parsed.Header.Get("Message-Id"), "<>")
	if id == "" {
		id = uuid.NewString()
	}
	return id
}

func senderAddress(parsed *mail.Message) string {
	from := parsed.Header.Get("From")
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	return from
}
