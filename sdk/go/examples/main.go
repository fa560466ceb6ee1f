// Command examples prints the tools and recent transactions of a running
// ABI MCP server through its ops API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"OpenMCP-ABI/sdk/go/openmcp"
)

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8080", "ops API base URL")
	limit := flag.Int("limit", 10, "number of transactions to list")
	flag.Parse()

	client, err := openmcp.NewClient(*addr, nil)
	if err != nil {
		log.Fatal(err)
	}
	client.SetAccessToken(os.Getenv("OPS_API_TOKEN"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		log.Fatalf("health: %v", err)
	}
	fmt.Printf("%s at %s: %s\n", health.Contract, health.Address, health.Status)
	if health.Chain != nil {
		fmt.Printf("chain %s block %s\n", health.Chain.Chain, health.Chain.BlockNumber)
	}

	tools, err := client.ListTools(ctx)
	if err != nil {
		log.Fatalf("list tools: %v", err)
	}
	for _, tool := range tools {
		fmt.Printf("%-8s %s(%s)\n", tool.Action, tool.Name, tool.Inputs)
	}

	txs, err := client.ListTransactions(ctx, *limit)
	if err != nil {
		log.Fatalf("list transactions: %v", err)
	}
	for _, tx := range txs {
		fmt.Printf("%s %-10s %-8s %s\n", time.Unix(tx.CreatedAt, 0).Format(time.RFC3339), tx.Function, tx.Status, tx.TxHash)
	}
}
