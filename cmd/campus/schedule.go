package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/campus-planner/internal/application"
	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
)

func scheduleCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage weekly timetables",
	}
	cmd.AddCommand(scheduleImportCmd(opts))
	return cmd
}

func scheduleImportCmd(opts *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import slots from a YAML file into an owner's timetable",
		Long: `Import slots from a YAML file into an owner's timetable.

The file is a list of slots:

  - weekday: Monday
    startTime: "09:00"
    endTime: "10:00"
    title: Physics
    location: Room 101
    type: academic
    academicType: lecture
    attendanceWeight: 1

Invalid items and items identical to an existing slot are reported and
skipped; the rest are created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(false)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			inputs, err := parseSlotFile(file)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			store, err := openStore(cmd.Context(), cfg, false, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			service := application.NewScheduleServiceWithLogger(store, uuid.NewString, time.Now, logger)
			result, err := importSlots(cmd.Context(), store, service, email, inputs)
			if err != nil {
				return err
			}
			printImportResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the owner receiving the slots")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

type slotEntry struct {
	Weekday          string  `yaml:"weekday"`
	StartTime        string  `yaml:"startTime"`
	EndTime          string  `yaml:"endTime"`
	Title            string  `yaml:"title"`
	Location         *string `yaml:"location"`
	Type             string  `yaml:"type"`
	AcademicType     string  `yaml:"academicType"`
	AttendanceWeight int     `yaml:"attendanceWeight"`
}

// parseSlotFile decodes a YAML list of slots. Values that do not parse are
// passed on as invalid so the import reports them per item.
func parseSlotFile(r io.Reader) ([]application.SlotInput, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var entries []slotEntry
	if err := decoder.Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no slots found")
		}
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.New("no slots found")
	}

	inputs := make([]application.SlotInput, 0, len(entries))
	for _, entry := range entries {
		input := application.SlotInput{
			Weekday:          domain.Weekday(entry.Weekday),
			Start:            -1,
			End:              -1,
			Title:            entry.Title,
			Location:         entry.Location,
			Kind:             domain.SlotKind(strings.ToLower(entry.Type)),
			AcademicKind:     domain.AcademicKind(strings.ToLower(entry.AcademicType)),
			AttendanceWeight: entry.AttendanceWeight,
		}
		if day, err := domain.ParseWeekday(entry.Weekday); err == nil {
			input.Weekday = day
		}
		if start, err := domain.ParseTimeOfDay(entry.StartTime); err == nil {
			input.Start = start
		}
		if end, err := domain.ParseTimeOfDay(entry.EndTime); err == nil {
			input.End = end
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

type slotImporter interface {
	ImportSlots(ctx context.Context, principal application.Principal, inputs []application.SlotInput) (application.ImportResult, error)
}

func importSlots(ctx context.Context, owners persistence.OwnerRepository, importer slotImporter, email string, inputs []application.SlotInput) (application.ImportResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	owner, err := owners.GetOwnerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return application.ImportResult{}, fmt.Errorf("no owner is registered with %s", email)
		}
		return application.ImportResult{}, err
	}
	return importer.ImportSlots(ctx, application.Principal{OwnerID: owner.ID}, inputs)
}

func printImportResult(out io.Writer, result application.ImportResult) {
	for _, item := range result.Items {
		switch item.Outcome {
		case application.ImportCreated:
			slot := item.Slot
			fmt.Fprintf(out, "#%d created %s %s %s-%s (%s)\n", item.Index+1, slot.Title, slot.Weekday, slot.Start, slot.End, slot.ID)
		case application.ImportConflict:
			if item.ConflictWith != "" {
				fmt.Fprintf(out, "#%d skipped: identical to slot %s\n", item.Index+1, item.ConflictWith)
			} else {
				fmt.Fprintf(out, "#%d skipped: duplicate within the file\n", item.Index+1)
			}
		case application.ImportInvalid:
			fields := make([]string, 0, len(item.FieldErrors))
			for field := range item.FieldErrors {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for i, field := range fields {
				fields[i] = field + ": " + item.FieldErrors[field]
			}
			fmt.Fprintf(out, "#%d invalid: %s\n", item.Index+1, strings.Join(fields, "; "))
		}
	}
	fmt.Fprintf(out, "%d created, %d invalid, %d skipped\n", result.Created, result.Invalid, result.Conflicts)
}
