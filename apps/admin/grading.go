package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/grading"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	failColor   = color.New(color.FgRed)
	passColor   = color.New(color.FgGreen)
)

func gradeColor(letter grading.Letter) *color.Color {
	if letter == grading.F {
		return failColor
	}
	return passColor
}

func (cli *commandLine) grade(written, objective int) error {
	g, err := grading.Evaluate(grading.Mark{Written: written, Objective: objective})
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Written", "Objective", "Total", "Grade Point", "Letter"})
	table.Append([]string{
		strconv.Itoa(written),
		strconv.Itoa(objective),
		strconv.Itoa(g.Total),
		g.GradePoint.String(),
		string(g.Letter),
	})
	table.Render()
	return nil
}

// parseEntries parses "5.0,4.0,3.5:optional" into aggregation entries.
func parseEntries(s string) ([]grading.Entry, error) {
	entries := make([]grading.Entry, 0)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, ":", 2)
		gp, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, errors.Errorf("invalid grade point %q", parts[0])
		}
		entry := grading.Entry{GradePoint: grading.GradePoint(gp)}
		if len(parts) == 2 {
			if entry.Role, err = grading.ParseSubjectRole(parts[1]); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (cli *commandLine) gpa(grades string) error {
	entries, err := parseEntries(grades)
	if err != nil {
		return err
	}
	res, err := grading.Aggregate(entries)
	if err != nil {
		return err
	}
	gradeColor(res.Grade).Fprintf(cli.out, "GPA: %.2f - %s\n", res.GPA, res.Grade)
	return nil
}

func (cli *commandLine) transcript(id string) error {
	tr, err := cli.resSvc.Transcript(context.Background(), id)
	if err != nil {
		return err
	}

	r := tr.Result
	headerColor.Fprintf(cli.out, "%s (%s) - %s, %s %d\n", r.StudentName, r.StudentID, r.Class, r.Exam, r.Year)

	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Subject", "Role", "Written", "Objective", "Total", "Grade Point", "Letter"})
	for _, s := range tr.Subjects {
		table.Append([]string{
			s.SubjectID,
			s.Role.String(),
			strconv.Itoa(s.Mark.Written),
			strconv.Itoa(s.Mark.Objective),
			strconv.Itoa(s.Grade.Total),
			s.Grade.GradePoint.String(),
			string(s.Grade.Letter),
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "GPA", fmt.Sprintf("%.2f %s", tr.Aggregate.GPA, tr.Aggregate.Grade)})
	table.Render()

	gradeColor(tr.Aggregate.Grade).Fprintf(cli.out, "Verification code: %s\n", tr.VerificationCode)
	return nil
}
