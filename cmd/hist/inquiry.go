package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/history/internal/model"
	"github.com/spf13/cobra"
)

var inquiryCmd = &cobra.Command{
	Use:     "inquiry",
	Short:   "Submit an enterprise inquiry",
	GroupID: "research",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := inquiryFromFlags(cmd)
		if err := model.ValidateInquiry(in); err != nil {
			return err
		}
		if err := historyClient.SubmitInquiry(context.Background(), in); err != nil {
			return fmt.Errorf("submitting inquiry: %w", err)
		}
		fmt.Printf("inquiry from %s received\n", in.CompanyName)
		return nil
	},
}

func inquiryFromFlags(cmd *cobra.Command) *model.Inquiry {
	f := cmd.Flags()
	in := &model.Inquiry{}
	in.CompanyName, _ = f.GetString("company")
	in.CompanySize, _ = f.GetString("size")
	in.Industry, _ = f.GetString("industry")
	in.ContactName, _ = f.GetString("name")
	in.ContactEmail, _ = f.GetString("email")
	in.JobTitle, _ = f.GetString("title")
	in.UseCase, _ = f.GetString("use-case")
	in.BookedCall, _ = f.GetBool("booked-call")
	return in
}

func init() {
	f := inquiryCmd.Flags()
	f.String("company", "", "company name (required)")
	f.String("size", "", "company size")
	f.String("industry", "", "industry")
	f.String("name", "", "contact name (required)")
	f.String("email", "", "contact email (required)")
	f.String("title", "", "job title (required)")
	f.String("use-case", "", "intended use case (required)")
	f.Bool("booked-call", false, "a call has already been booked")
}
