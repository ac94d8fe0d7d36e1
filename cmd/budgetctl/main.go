package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mfeltz/budgetboard-go/internal/logging"
	"github.com/mfeltz/budgetboard-go/pkg/budget"
)

// budgetctl activates a budget against either the hosted store or a local
// file and prints a financial summary from the synchronized snapshot.
func main() {
	var (
		baseURL   = flag.String("url", os.Getenv("BUDGETBOARD_URL"), "hosted store base URL")
		apiKey    = flag.String("api-key", os.Getenv("BUDGETBOARD_API_KEY"), "hosted store API key")
		localPath = flag.String("local", "", "path to a local store file (used when -url is empty)")
		userID    = flag.String("user", os.Getenv("BUDGETBOARD_USER_ID"), "authenticated user id")
		budgetID  = flag.String("budget", "", "budget to activate (default: first accessible)")
		watch     = flag.Duration("watch", 0, "keep running and re-print on updates for this long")
	)
	flag.Parse()

	client, err := budget.NewClient(&budget.Options{
		BaseURL:   *baseURL,
		APIKey:    *apiKey,
		LocalPath: *localPath,
		UserID:    *userID,
		Logger:    logging.New(),
		Renderer:  budget.RendererFunc(func() {}),
		Notifier: budget.NotifierFunc(func(msg string, severity budget.Severity) {
			fmt.Printf("[%s] %s\n", severity, msg)
		}),
	})
	if err != nil {
		log.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	budgets, err := client.Budgets(ctx)
	if err != nil {
		log.Fatalf("failed to list budgets: %v", err)
	}
	if len(budgets) == 0 {
		log.Fatal("no accessible budgets")
	}

	target := *budgetID
	if target == "" {
		target = budgets[0].ID
	}

	if err := client.ActivateBudget(ctx, target); err != nil {
		log.Fatalf("failed to activate budget %s: %v", target, err)
	}

	printSummary(client)

	if *watch > 0 {
		deadline := time.Now().Add(*watch)
		for time.Now().Before(deadline) {
			time.Sleep(5 * time.Second)
			printSummary(client)
		}
	}
}

func printSummary(client *budget.Client) {
	snap := client.Data.Get()

	fmt.Printf("\nBudget %s: %d transactions, %d categories, %d accounts\n",
		snap.BudgetID, len(snap.Transactions), len(snap.Categories), len(snap.Accounts))
	fmt.Printf("  Assets:           %12.2f\n", budget.Assets(snap))
	fmt.Printf("  Credit card debt: %12.2f\n", budget.CreditCardDebt(snap))
	fmt.Printf("  Other debt:       %12.2f\n", budget.TotalDebt(snap))
	fmt.Printf("  Net worth:        %12.2f\n", budget.NetWorth(snap))

	for _, acct := range snap.Accounts {
		if acct.Type != budget.AccountCreditCard {
			continue
		}
		pct := budget.CreditUtilization(acct)
		fmt.Printf("  %s utilization: %.1f%% (%s)\n",
			acct.Name, pct, budget.UtilizationLevelFor(pct))
	}
}
