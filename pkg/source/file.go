// Package source reads project portfolios from files.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
)

// File loads projects from a YAML portfolio file. The file is re-read on
// every call so edits are picked up by the next cycle.
type File struct {
	path   string
	logger *slog.Logger
}

// NewFile creates a file source.
func NewFile(path string, logger *slog.Logger) *File {
	return &File{path: path, logger: logger}
}

// ListProjects reads and validates the portfolio. Records that fail
// validation are logged and skipped.
func (f *File) ListProjects(_ context.Context) ([]model.Project, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read portfolio file %s: %w", f.path, err)
	}

	projects, skipped, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("portfolio file %s: %w", f.path, err)
	}
	for _, s := range skipped {
		f.logger.Warn("skipping project record", "file", f.path, "error", s)
	}
	return projects, nil
}

// Parse decodes a YAML portfolio. It returns the valid projects and one error
// per record that could not be built. A malformed document is an error.
func Parse(data []byte) ([]model.Project, []error, error) {
	var doc portfolioFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse portfolio: %w", err)
	}

	projects := make([]model.Project, 0, len(doc.Projects))
	var skipped []error
	for i, rec := range doc.Projects {
		p, err := rec.toProject()
		if err != nil {
			skipped = append(skipped, fmt.Errorf("record %d (%s): %w", i, rec.ID, err))
			continue
		}
		projects = append(projects, p)
	}
	return projects, skipped, nil
}

type portfolioFile struct {
	Projects []projectRecord `yaml:"projects"`
}

type projectRecord struct {
	ID              string            `yaml:"id"`
	Name            string            `yaml:"name"`
	Description     string            `yaml:"description"`
	Unit            string            `yaml:"unit"`
	Responsible     delimitedList     `yaml:"responsible"`
	Status          string            `yaml:"status"`
	RiskLevel       string            `yaml:"risk_level"`
	StartDate       string            `yaml:"start_date"`
	ExpectedEndDate string            `yaml:"expected_end_date"`
	Tags            delimitedList     `yaml:"tags"`
	Milestones      []milestoneRecord `yaml:"milestones"`
}

type milestoneRecord struct {
	ID           string `yaml:"id"`
	Title        string `yaml:"title"`
	ExpectedDate string `yaml:"expected_date"`
	ActualDate   string `yaml:"actual_date"`
	Status       string `yaml:"status"`
}

func (r projectRecord) toProject() (model.Project, error) {
	start, err := requiredDate("start_date", r.StartDate)
	if err != nil {
		return model.Project{}, err
	}
	end, err := requiredDate("expected_end_date", r.ExpectedEndDate)
	if err != nil {
		return model.Project{}, err
	}

	milestones := make([]model.Milestone, 0, len(r.Milestones))
	for _, mr := range r.Milestones {
		expected, err := requiredDate("milestone "+mr.Title+" expected_date", mr.ExpectedDate)
		if err != nil {
			return model.Project{}, err
		}
		m := model.Milestone{
			ID:           mr.ID,
			Title:        mr.Title,
			ExpectedDate: expected,
			Status:       model.MilestoneStatus(strings.TrimSpace(mr.Status)),
		}
		if strings.TrimSpace(mr.ActualDate) != "" {
			actual, err := model.ParseDate(strings.TrimSpace(mr.ActualDate))
			if err != nil {
				return model.Project{}, err
			}
			m.ActualDate = &actual
		}
		milestones = append(milestones, m)
	}

	return model.NewProject(model.Project{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		Unit:            r.Unit,
		Responsible:     r.Responsible,
		Status:          model.ProjectStatus(strings.TrimSpace(r.Status)),
		Risk:            model.RiskLevel(strings.TrimSpace(r.RiskLevel)),
		StartDate:       start,
		ExpectedEndDate: end,
		Milestones:      milestones,
		Tags:            r.Tags,
	})
}

func requiredDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("missing %s", field)
	}
	return model.ParseDate(value)
}

// delimitedList accepts either a YAML sequence or a scalar of values
// separated by ';' or ','.
type delimitedList []string

func (l *delimitedList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = SplitList(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a list or a delimited string", node.Line)
	}
}

// SplitList splits a ';' or ',' separated string, trimming blanks and
// dropping empty entries.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
