package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
	"github.com/Activ8Auto/ProAutoFill/internal/gateway"
	"github.com/Activ8Auto/ProAutoFill/internal/service"
	"github.com/Activ8Auto/ProAutoFill/internal/session"
)

func newDiagnosesCommand(cli *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "diagnoses",
		Aliases: []string{"dx"},
		Short:   "Manage the diagnosis library",
	}
	cmd.AddCommand(
		newDiagnosesListCommand(cli),
		newDiagnosesCreateCommand(cli),
		newDiagnosesDeleteCommand(cli),
	)
	return cmd
}

func (c *cliContext) diagnoses() *service.DiagnosisService {
	return service.NewDiagnosisService(c.client(), nil, c.logger())
}

func (c *cliContext) session() (session.Session, error) {
	token, err := c.token()
	if err != nil {
		return session.Session{}, err
	}
	userID, err := c.userID()
	if err != nil {
		return session.Session{}, err
	}
	return session.Session{Token: token, UserID: userID}, nil
}

func newDiagnosesListCommand(cli *cliContext) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List diagnoses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := cli.token()
			if err != nil {
				return err
			}
			entries, err := cli.diagnoses().List(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("failed to fetch diagnoses: %w", err)
			}

			if raw {
				return writeBackendJSON(cli, entries)
			}
			renderDiagnoses(cli.out, entries)
			if conflicts := domain.ExclusionConflicts(entries); len(conflicts) > 0 {
				fmt.Fprintf(cli.out, "Exclusion groups with more than one diagnosis: %v\n", conflicts)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print JSON with the backend's field names")
	return cmd
}

func writeBackendJSON(cli *cliContext, entries []domain.DiagnosisEntry) error {
	shaped := make([]map[string]any, 0, len(entries))
	for _, d := range entries {
		m, err := gateway.BackendShape(d)
		if err != nil {
			return err
		}
		shaped = append(shaped, m)
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(shaped)
}

func newDiagnosesCreateCommand(cli *cliContext) *cobra.Command {
	var draft domain.DiagnosisEntry

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a diagnosis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := cli.session()
			if err != nil {
				return err
			}
			created, err := cli.diagnoses().Create(cmd.Context(), sess, draft)
			if err != nil {
				return err
			}
			printSuccess(cli.out, "Diagnosis created (%s)", created.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&draft.Name, "name", "", "diagnosis name")
	f.StringVar(&draft.ICDCode, "icd-code", "", "ICD-10 code")
	f.StringSliceVar(&draft.CurrentMedications, "current-medications", nil, "current medications")
	f.StringSliceVar(&draft.PhysicalExam, "physical-exam", nil, "physical exam findings")
	f.StringSliceVar(&draft.LaboratoryTests, "labs", nil, "laboratory tests")
	f.StringSliceVar(&draft.TeachingProvided, "teaching", nil, "teaching provided")
	f.StringSliceVar(&draft.Medications, "medications", nil, "prescribed medications")
	f.StringVar(&draft.ExclusionGroup, "exclusion-group", "", "exclusion group")
	return cmd
}

func newDiagnosesDeleteCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a diagnosis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cli.session()
			if err != nil {
				return err
			}
			if err := cli.diagnoses().Delete(cmd.Context(), sess, args[0]); err != nil {
				return err
			}
			printSuccess(cli.out, "Diagnosis %s deleted", args[0])
			return nil
		},
	}
}
