package retry_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/retrykit/internal/core/retry"
)

func ExampleDo() {
	calls := 0
	v, err := retry.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("network glitch")
		}
		return 42, nil
	},
		retry.WithInitialDelay(retry.MinDelay),
		retry.WithJitter(0),
		retry.WithRecorder(retry.NopRecorder{}),
	)

	fmt.Println("Value:", v)
	fmt.Println("Error:", err)
	fmt.Println("Calls:", calls)

	// Output:
	// Value: 42
	// Error: <nil>
	// Calls: 2
}

func ExampleClassify() {
	fmt.Println(retry.Classify(errors.New("network timeout occurred")))
	fmt.Println(retry.Classify(errors.New("Validation failed: name")))

	// Output:
	// NETWORK
	// VALIDATION
}

func ExampleUserMessage() {
	_, err := retry.Do(context.Background(), func(ctx context.Context) (string, error) {
		return "", errors.New("rate limit exceeded")
	},
		retry.WithMaxRetries(1),
		retry.WithRecorder(retry.NopRecorder{}),
	)

	fmt.Println(err)
	fmt.Println(retry.UserMessage(err))

	// Output:
	// API Operation failed after 1 attempts: rate limit exceeded
	// Muitas requisições. Por favor, aguarde alguns momentos e tente novamente.
}
