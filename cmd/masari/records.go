package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbaille/masari/internal/domain"
	"github.com/pbaille/masari/internal/intent"
)

func tasksCmd() *cobra.Command {
	var (
		filter domain.TaskFilter
		today  bool
	)

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks and appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if today {
				filter.Date = intent.Today(nowFunc())
			}
			tasks, err := s.ListTasks(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if len(tasks) == 0 {
				fmt.Println("No tasks yet. Use 'masari say' to add one.")
				return nil
			}

			for _, t := range tasks {
				mark := " "
				if t.Completed {
					mark = "x"
				}
				when := t.Date
				if t.Time != "" {
					when += " " + t.Time
				}
				fmt.Printf("%s [%s] %-16s %-12s %s\n", shortID(t.ID), mark, when, t.Section, truncate(t.Title, 60))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Date, "date", "", "only tasks on this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&today, "today", false, "only today's tasks")
	cmd.Flags().StringVar(&filter.Section, "section", "", "only tasks in this section")
	cmd.Flags().BoolVar(&filter.PendingOnly, "pending", false, "hide completed tasks")
	return cmd
}

func doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done [id]",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			tasks, err := s.ListTasks(cmd.Context(), domain.TaskFilter{PendingOnly: true})
			if err != nil {
				return err
			}
			for _, t := range tasks {
				if strings.HasPrefix(t.ID, args[0]) {
					if err := s.CompleteTask(cmd.Context(), t.ID); err != nil {
						return err
					}
					fmt.Printf("Completed: %s\n", t.Title)
					return nil
				}
			}
			return fmt.Errorf("pending task not found: %s", args[0])
		},
	}
}

func shoppingCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "shopping",
		Short: "Show the shopping list",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			items, err := s.ListShoppingItems(cmd.Context(), all)
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Println("The shopping list is empty.")
				return nil
			}

			// Group by category
			var order []string
			byCategory := make(map[string][]domain.ShoppingItem)
			for _, it := range items {
				if _, ok := byCategory[it.Category]; !ok {
					order = append(order, it.Category)
				}
				byCategory[it.Category] = append(byCategory[it.Category], it)
			}

			for _, c := range order {
				fmt.Printf("%s\n", c)
				for _, it := range byCategory[c] {
					mark := " "
					if it.Purchased {
						mark = "x"
					}
					fmt.Printf("  %s [%s] %s\n", shortID(it.ID), mark, it.Name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include purchased items")
	return cmd
}

func boughtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bought [id]",
		Short: "Mark a shopping item as purchased",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			items, err := s.ListShoppingItems(cmd.Context(), false)
			if err != nil {
				return err
			}
			for _, it := range items {
				if strings.HasPrefix(it.ID, args[0]) {
					if err := s.MarkPurchased(cmd.Context(), it.ID); err != nil {
						return err
					}
					fmt.Printf("Purchased: %s\n", it.Name)
					return nil
				}
			}
			return fmt.Errorf("shopping item not found: %s", args[0])
		},
	}
}

func goalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goals",
		Short: "List development goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			goals, err := s.ListGoals(cmd.Context())
			if err != nil {
				return err
			}

			if len(goals) == 0 {
				fmt.Println("No goals yet.")
				return nil
			}

			for _, g := range goals {
				fmt.Printf("%s  %-6s %-7s %-8s %s\n", shortID(g.ID), g.Kind, g.Frequency, g.Status, truncate(g.Title, 60))
			}
			return nil
		},
	}
}

func ledgerCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List income, expenses and savings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			txs, err := s.ListTransactions(cmd.Context(), kind)
			if err != nil {
				return err
			}

			for _, t := range txs {
				sign := "+"
				if t.Kind != domain.KindIncome {
					sign = "-"
				}
				fmt.Printf("%s  %s  %s%-10s %-13s %s\n", shortID(t.ID), t.Date, sign, formatAmount(t.Amount), t.Category, truncate(t.Description, 50))
			}

			o, err := s.Overview(cmd.Context(), intent.Today(nowFunc()))
			if err != nil {
				return err
			}
			fmt.Printf("\nIncome %s  Expense %s  Savings %s  Balance %s\n",
				formatAmount(o.Income), formatAmount(o.Expense), formatAmount(o.Savings), formatAmount(o.Balance()))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only income, expense or savings")
	return cmd
}

func placesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "places",
		Short: "List saved places",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			places, err := s.ListPlaces(cmd.Context())
			if err != nil {
				return err
			}

			if len(places) == 0 {
				fmt.Println("No saved places.")
				return nil
			}

			for _, p := range places {
				fmt.Printf("%s  %.5f, %.5f  %s  %s\n", shortID(p.ID), p.Lat, p.Lng, p.SavedAt.Format("2006-01-02 15:04"), p.Name)
			}
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent utterances",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			utterances, err := s.RecentUtterances(cmd.Context(), limit)
			if err != nil {
				return err
			}

			for _, u := range utterances {
				fmt.Printf("%s  %s  %-11s %s\n", u.CreatedAt.Format("2006-01-02 15:04"), u.Lang, u.IntentType, truncate(u.Text, 60))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of utterances to show")
	return cmd
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show today's overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			today := intent.Today(nowFunc())
			o, err := s.Overview(cmd.Context(), today)
			if err != nil {
				return err
			}

			fmt.Printf("Summary for %s\n", today)
			fmt.Printf("  Pending tasks:  %d\n", o.PendingTasks)
			fmt.Printf("  Today's tasks:  %d\n", o.TodayTasks)
			fmt.Printf("  Shopping items: %d\n", o.ShoppingItems)
			fmt.Printf("  Active goals:   %d\n", o.ActiveGoals)
			fmt.Printf("  Balance:        %s (income %s, expense %s, savings %s)\n",
				formatAmount(o.Balance()), formatAmount(o.Income), formatAmount(o.Expense), formatAmount(o.Savings))

			if len(o.Upcoming) > 0 {
				fmt.Printf("\nUpcoming:\n")
				for _, t := range o.Upcoming {
					fmt.Printf("  %s %s  %s\n", t.Date, t.Time, t.Title)
				}
			}
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
