package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kioskpos/internal/domain"
	"kioskpos/internal/pricing"
	"kioskpos/internal/services"
	"kioskpos/internal/validate"
)

var adminUser, adminPass string

// adminSession logs in upstream with the flag or environment credentials.
func adminSession() (*services.AdminService, domain.AdminSession, error) {
	user, pass := adminUser, adminPass
	if user == "" {
		user = os.Getenv("KIOSK_ADMIN_USER")
	}
	if pass == "" {
		pass = os.Getenv("KIOSK_ADMIN_PASS")
	}
	if !validate.Credentials(user, pass) {
		return nil, domain.AdminSession{}, fmt.Errorf("set --user/--password or KIOSK_ADMIN_USER/KIOSK_ADMIN_PASS")
	}
	api := backend()
	tok, err := api.Login(user, pass)
	if err != nil {
		return nil, domain.AdminSession{}, fmt.Errorf("login: %w", err)
	}
	return &services.AdminService{Backend: api}, domain.AdminSession{Token: tok, Authenticated: true}, nil
}

func newOrdersCmd() *cobra.Command {
	orders := &cobra.Command{Use: "orders", Short: "List and update orders"}
	orders.PersistentFlags().StringVar(&adminUser, "user", "", "admin username")
	orders.PersistentFlags().StringVar(&adminPass, "password", "", "admin password")

	var status, customer string
	list := &cobra.Command{
		Use:   "list",
		Short: "Print orders newest first with the revenue of the listed ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "all" {
				if _, ok := validate.Status(status); !ok {
					return fmt.Errorf("unknown status %q", status)
				}
			}
			svc, sess, err := adminSession()
			if err != nil {
				return err
			}
			rep, err := svc.ListOrders(sess, services.OrderFilter{Status: status, Customer: customer})
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tCUSTOMER\tTOTAL\tSTATUS")
			for _, o := range rep.Orders {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.Timestamp.Format("2006-01-02 15:04"), o.CustomerName, pricing.Won(o.TotalAmount), o.Status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revenue %s over %d orders\n", pricing.Won(rep.Revenue), len(rep.Orders))
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", "all", "pending, completed, cancelled or all")
	list.Flags().StringVar(&customer, "customer", "", "customer name substring")

	set := &cobra.Command{
		Use:   "status ORDER_ID STATUS",
		Short: "Move an order to pending, completed or cancelled",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := validate.ID(args[0])
			if !ok {
				return fmt.Errorf("invalid order id %q", args[0])
			}
			st, ok := validate.Status(args[1])
			if !ok {
				return fmt.Errorf("unknown status %q", args[1])
			}
			svc, sess, err := adminSession()
			if err != nil {
				return err
			}
			o, err := svc.UpdateOrderStatus(sess, id, st)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", id, o.Status)
			return nil
		},
	}
	orders.AddCommand(list, set)
	return orders
}
