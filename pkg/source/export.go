package source

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
)

// Encode renders projects as a portfolio document that Parse reads back.
func Encode(projects []model.Project) ([]byte, error) {
	doc := portfolioFile{Projects: make([]projectRecord, 0, len(projects))}
	for _, p := range projects {
		doc.Projects = append(doc.Projects, recordFor(p))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode portfolio: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode portfolio: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile atomically replaces path with the encoded portfolio.
func WriteFile(path string, projects []model.Project) error {
	data, err := Encode(projects)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write portfolio file %s: %w", path, err)
	}
	// atomic.WriteFile does not set permissions on new files.
	if err := os.Chmod(path, 0o644); err != nil {
		return fmt.Errorf("set portfolio file permissions: %w", err)
	}
	return nil
}

func recordFor(p model.Project) projectRecord {
	rec := projectRecord{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Unit:            p.Unit,
		Responsible:     p.Responsible,
		Status:          string(p.Status),
		RiskLevel:       string(p.Risk),
		StartDate:       model.FormatDate(p.StartDate),
		ExpectedEndDate: model.FormatDate(p.ExpectedEndDate),
		Tags:            p.Tags,
	}
	for _, m := range p.Milestones {
		mr := milestoneRecord{
			ID:           m.ID,
			Title:        m.Title,
			ExpectedDate: model.FormatDate(m.ExpectedDate),
			Status:       string(m.Status),
		}
		if m.ActualDate != nil {
			mr.ActualDate = model.FormatDate(*m.ActualDate)
		}
		rec.Milestones = append(rec.Milestones, mr)
	}
	return rec
}
