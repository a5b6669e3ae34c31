package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"wallet-persona-engine/internal/domain/entity"
	"wallet-persona-engine/internal/domain/service"

	"github.com/joho/godotenv"
)

// analysisInput is the CLI input file format.
type analysisInput struct {
	WalletAddress string                  `json:"walletAddress"`
	Transactions  []entity.RawTransaction `json:"transactions"`
}

func main() {
	_ = godotenv.Load()

	input := flag.String("input", "-", "path to a JSON file with walletAddress and transactions, or - for stdin")
	wallet := flag.String("wallet", "", "wallet address, overriding the one in the input file")
	pretty := flag.Bool("pretty", false, "indent the output JSON")
	flag.Parse()

	if err := run(*input, *wallet, *pretty, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "personacli: %v\n", err)

		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(inputPath, walletOverride string, pretty bool, out io.Writer) error {
	data, err := readInput(inputPath)
	if err != nil {
		return err
	}

	var input analysisInput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to parse input JSON: %w", err)
	}

	walletAddress := input.WalletAddress
	if walletOverride != "" {
		walletAddress = walletOverride
	}
	if walletAddress == "" {
		return fmt.Errorf("no wallet address given: set walletAddress in the input file or pass -wallet")
	}

	validator := service.NewTransactionValidator()
	transactions, err := validator.Validate(input.Transactions)
	if err != nil {
		return err
	}

	analyzer := service.NewPersonaAnalyzer()
	result, err := analyzer.Analyze(walletAddress, transactions, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	encoder := json.NewEncoder(out)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(result)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return data, nil
}
