package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmehra2102/order-consistency-engine/internal/lending/application"
	"github.com/dmehra2102/order-consistency-engine/internal/lending/domain"
	"github.com/dmehra2102/order-consistency-engine/internal/lending/infrastructure/sqlite"
	"github.com/dmehra2102/order-consistency-engine/pkg/logging"
)

type app struct {
	dbPath   string
	logLevel string
	store    *sqlite.Store
	svc      *application.Service
}

// newRootCmd builds the command tree. The returned close func releases the
// database opened by whichever subcommand ran.
func newRootCmd() (*cobra.Command, func() error) {
	a := &app{}
	root := &cobra.Command{
		Use:           "lendctl",
		Short:         "Lend books to borrowers, at most five loans each",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			store, err := sqlite.Open(cmd.Context(), a.dbPath)
			if err != nil {
				return err
			}
			a.store = store
			a.svc = application.NewService(logging.NewTo(cmd.ErrOrStderr(), a.logLevel), store)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "lending.db", "SQLite database file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "debug, info, warn or error")

	root.AddCommand(a.addBookCmd(), a.registerCmd(), a.borrowCmd(), a.booksCmd(), a.loansCmd())
	return root, a.close
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *app) addBookCmd() *cobra.Command {
	var copies int
	cmd := &cobra.Command{
		Use:   "add-book TITLE",
		Short: "Add a title with a number of copies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.svc.AddBook(cmd.Context(), args[0], copies)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), b.ID())
			return nil
		},
	}
	cmd.Flags().IntVar(&copies, "copies", 1, "copies on the shelf")
	return cmd
}

func (a *app) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register NAME",
		Short: "Register a borrower",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			br, err := a.svc.RegisterBorrower(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), br.ID())
			return nil
		},
	}
}

func (a *app) borrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow BORROWER_ID BOOK_ID",
		Short: "Lend one copy of a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.svc.Borrow(cmd.Context(), domain.BorrowerID(args[0]), domain.BookID(args[1]))
		},
	}
}

func (a *app) booksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List books and copies left",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := a.svc.Books(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTOCK")
			for _, b := range books {
				fmt.Fprintf(w, "%s\t%s\t%d\n", b.ID(), b.Title(), b.Stock().Int())
			}
			return w.Flush()
		},
	}
}

func (a *app) loansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "loans BORROWER_ID",
		Short: "Show a borrower's loans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			br, err := a.svc.Borrower(cmd.Context(), domain.BorrowerID(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d/%d)\n", br.Name(), br.Loans().Len(), br.Loans().Max())
			for _, id := range br.Loans().Items() {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
}
