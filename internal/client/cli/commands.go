package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/gopfolio/internal/client/client"
	"github.com/dmitrijs2005/gopfolio/internal/common"
)

var errUsage = errors.New("usage: history <investment|goal> [page]")

func (a *App) Login(ctx context.Context) error {
	userName := a.config.Username
	if userName == "" {
		var err error
		userName, err = GetSimpleText(a.reader, "Enter username", a.out)
		if err != nil {
			return err
		}
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		return err
	}

	a.userName = userName
	printlnFn("Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	a.userName = ""
	if err != nil && !errors.Is(err, client.ErrUnavailable) {
		return err
	}
	printlnFn("Logged out")
	return nil
}

func (a *App) Totals(ctx context.Context) error {
	t, err := a.api.Totals(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total invested: %s\nTotal goals:    %s\n", t.Invested, t.Goals)
	return nil
}

func (a *App) History(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	kind := strings.ToLower(args[0])

	page := 1
	if len(args) > 1 {
		p, err := strconv.Atoi(args[1])
		if err != nil || p < 1 {
			return errUsage
		}
		page = p
	}

	res, err := a.api.History(ctx, kind, page, historyPageSize)
	if err != nil {
		return err
	}

	if len(res.Items) == 0 {
		fmt.Fprintf(a.out, "No %s transactions\n", res.Kind)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tNAME\tAMOUNT\tSHARE %")
	for _, it := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.Timestamp.Local().Format("2006-01-02 15:04"), it.Name, it.Amount, it.Percentage)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d of %d (%d total)\n", res.CurrentPage, res.TotalPages, res.TotalCount)
	return nil
}

func (a *App) Clear(ctx context.Context) error {
	if !Confirm(a.reader, "This deletes all details, transactions and totals. Continue?", a.out) {
		printlnFn("Cancelled")
		return nil
	}
	if err := a.api.Clear(ctx); err != nil {
		return err
	}
	printlnFn("All financial data cleared")
	return nil
}
