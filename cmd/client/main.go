package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/adrianliechti/vectorgate/pkg/client"
)

func main() {
	urlFlag := flag.String("url", "http://localhost:8080", "server url")
	tokenFlag := flag.String("token", "", "server token")
	presetFlag := flag.String("index", "", "index preset")
	encoderFlag := flag.String("encoder", "", "encoder id")
	topKFlag := flag.Int("top-k", 5, "number of results")
	rerankFlag := flag.Bool("rerank", false, "rerank results")

	flag.Parse()

	ctx := context.Background()

	if *presetFlag == "" {
		fmt.Fprintln(os.Stderr, "missing -index")
		os.Exit(1)
	}

	options := []client.RequestOption{}

	if *tokenFlag != "" {
		options = append(options, client.WithToken(*tokenFlag))
	}

	c := client.New(*urlFlag, options...)

	target := client.Target{
		Preset:  *presetFlag,
		Encoder: *encoderFlag,
	}

	query(ctx, c, target, *topKFlag, *rerankFlag)
}

func query(ctx context.Context, c *client.Client, target client.Target, topK int, rerank bool) {
	reader := bufio.NewReader(os.Stdin)
	output := os.Stdout

LOOP:
	for {
		output.WriteString(">>> ")
		input, err := reader.ReadString('\n')

		if err != nil {
			return
		}

		input = strings.TrimSpace(input)

		if input == "" {
			continue LOOP
		}

		if strings.HasPrefix(input, "/") {
			command, arg, _ := strings.Cut(input, " ")
			arg = strings.TrimSpace(arg)

			switch strings.ToLower(command) {
			case "/rerank":
				rerank = !rerank
				output.WriteString(fmt.Sprintf("rerank: %t\n", rerank))

			case "/top":
				n, err := strconv.Atoi(arg)

				if err != nil || n <= 0 {
					output.WriteString("usage: /top <n>\n")
					continue LOOP
				}

				topK = n

			case "/delete":
				if arg == "" {
					output.WriteString("usage: /delete <doc url>\n")
					continue LOOP
				}

				count, err := c.Deletions.New(ctx, client.DeletionRequest{
					Target: target,
					DocURL: arg,
				})

				if err != nil {
					output.WriteString(err.Error() + "\n")
					continue LOOP
				}

				output.WriteString(fmt.Sprintf("deleted %d chunks\n", count))

			default:
				output.WriteString("Unknown command\n")
			}

			continue LOOP
		}

		results, err := c.Queries.New(ctx, client.QueryRequest{
			Target: target,

			Input: input,
			TopK:  client.Ptr(topK),

			Rerank: rerank,
		})

		if err != nil {
			output.WriteString(err.Error() + "\n")
			continue LOOP
		}

		for i, r := range results {
			source := r.DocURL

			if r.PageNumber != nil {
				source += fmt.Sprintf(" (page %d)", *r.PageNumber)
			}

			output.WriteString(fmt.Sprintf("%2d) %.4f %s\n", i+1, r.Score, source))
			output.WriteString("    " + strings.ReplaceAll(strings.TrimSpace(r.Content), "\n", "\n    ") + "\n")
		}

		output.WriteString("\n")
	}
}
