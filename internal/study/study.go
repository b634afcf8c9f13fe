package study

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"github.com/KaramelBytes/mitelab-cli/internal/model"
	"github.com/KaramelBytes/mitelab-cli/internal/pipeline"
	"github.com/KaramelBytes/mitelab-cli/internal/utils"
	"github.com/google/uuid"
)

const (
	studyFileName = utils.StudyFile
	// maxRuns caps the run history kept in study.json.
	maxRuns = 50
)

// Study is a saved analysis session persisted on disk.
type Study struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Data        *DataRef  `json:"data,omitempty"`
	Choice      Choice    `json:"selection"`
	Runs        []Run     `json:"runs,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Not serialized: on-disk location of the study.json
	rootDir string `json:"-"`
}

// DataRef identifies the dataset a study analyses.
type DataRef struct {
	Path    string    `json:"path"`
	SHA256  string    `json:"sha256"`
	Rows    int       `json:"rows"`
	Years   []string  `json:"years"`
	AddedAt time.Time `json:"added_at"`
}

// Choice is the persisted form of a pipeline.Selection. The *Set flags keep an
// explicit empty choice apart from "use the default".
type Choice struct {
	Years       []string `json:"years,omitempty"`
	YearsSet    bool     `json:"years_set"`
	Features    []string `json:"features,omitempty"`
	FeaturesSet bool     `json:"features_set"`
}

// Run records one execution of the pipeline.
type Run struct {
	ID          string    `json:"id"`
	At          time.Time `json:"at"`
	DataSHA256  string    `json:"data_sha256"`
	Years       []string  `json:"years"`
	State       string    `json:"state"`
	Formula     string    `json:"formula,omitempty"`
	Significant []string  `json:"significant,omitempty"`
	Message     string    `json:"message,omitempty"`
	ReportFile  string    `json:"report_file,omitempty"`
}

// NewStudy constructs an in-memory study. Call Save() to persist.
func NewStudy(name, description, rootDir string) *Study {
	now := time.Now()
	return &Study{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// LoadStudy loads a study.json from the provided directory.
func LoadStudy(dir string) (*Study, error) {
	path := filepath.Join(dir, studyFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("study not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read study: %w", err)
	}
	var s Study
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse study: %w", err)
	}
	s.rootDir = dir
	return &s, nil
}

// Exists reports whether dir holds a study.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, studyFileName))
	return err == nil
}

// List returns the names of the studies under root, sorted.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read studies dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && Exists(filepath.Join(root, e.Name())) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// RootDir returns the on-disk study directory path.
func (s *Study) RootDir() string { return s.rootDir }

// Save writes study.json using atomic write.
func (s *Study) Save() error {
	if s.rootDir == "" {
		return errors.New("study root directory not set")
	}
	if err := utils.EnsureDir(s.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	s.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.rootDir, studyFileName), data)
}

// SetData points the study at path, recording its digest and years. A year
// selection no longer present in the new data is cleared.
func (s *Study) SetData(path string, ds *dataset.Dataset) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve data path: %w", err)
	}
	sum, err := pipeline.Digest(abs)
	if err != nil {
		return err
	}
	s.Data = &DataRef{Path: abs, SHA256: sum, Rows: ds.Len(), Years: ds.DistinctYears(), AddedAt: time.Now()}
	if s.Choice.YearsSet {
		if _, err := pipeline.ResolveYears(ds, s.Choice.selection()); err != nil {
			s.ClearYears()
		}
	}
	s.UpdatedAt = time.Now()
	return nil
}

// DataChanged reports whether the data file differs from when it was attached.
func (s *Study) DataChanged() (bool, error) {
	if s.Data == nil {
		return false, errors.New("study has no data file; run set-data first")
	}
	sum, err := pipeline.Digest(s.Data.Path)
	if err != nil {
		return false, err
	}
	return sum != s.Data.SHA256, nil
}

// SetYears stores an explicit year choice, validated against the attached
// data when there is one.
func (s *Study) SetYears(years []string) error {
	if s.Data != nil {
		known := make(map[string]struct{}, len(s.Data.Years))
		for _, y := range s.Data.Years {
			known[y] = struct{}{}
		}
		var invalid []string
		for _, y := range years {
			if _, ok := known[y]; !ok {
				invalid = append(invalid, y)
			}
		}
		if len(invalid) > 0 {
			return &model.ConfigError{Field: "years", Invalid: invalid, Allowed: s.Data.Years}
		}
	}
	s.Choice.Years = append([]string{}, years...)
	s.Choice.YearsSet = true
	s.UpdatedAt = time.Now()
	return nil
}

// ClearYears goes back to selecting every year.
func (s *Study) ClearYears() {
	s.Choice.Years = nil
	s.Choice.YearsSet = false
	s.UpdatedAt = time.Now()
}

// SetFeatures stores an explicit feature choice. It is validated against the
// candidate columns when the study runs.
func (s *Study) SetFeatures(features []string) {
	s.Choice.Features = append([]string{}, features...)
	s.Choice.FeaturesSet = true
	s.UpdatedAt = time.Now()
}

// ClearFeatures goes back to the default feature policy.
func (s *Study) ClearFeatures() {
	s.Choice.Features = nil
	s.Choice.FeaturesSet = false
	s.UpdatedAt = time.Now()
}

// Selection returns the pipeline selection the study stands for.
func (s *Study) Selection() pipeline.Selection { return s.Choice.selection() }

func (c Choice) selection() pipeline.Selection {
	var sel pipeline.Selection
	if c.YearsSet {
		sel = sel.WithYears(c.Years...)
	}
	if c.FeaturesSet {
		sel = sel.WithFeatures(c.Features...)
	}
	return sel
}

// RecordRun appends the outcome of a to the run history and returns it.
func (s *Study) RecordRun(a *pipeline.Analysis, reportFile string) Run {
	r := Run{
		ID:         uuid.NewString(),
		At:         time.Now(),
		Years:      append([]string{}, a.Years...),
		ReportFile: reportFile,
	}
	if s.Data != nil {
		r.DataSHA256 = s.Data.SHA256
	}
	if a.Err != nil {
		r.State = string(pipeline.StateFailed)
		r.Message = pipeline.UserMessage(a.Err)
	} else {
		r.State = string(a.Model.State)
		r.Message = a.Model.Message
		if a.Model.State == pipeline.StateFitted {
			r.Formula = a.Model.Formula.String()
			r.Significant = append([]string{}, a.Model.Significant...)
		}
	}
	s.Runs = append(s.Runs, r)
	if len(s.Runs) > maxRuns {
		s.Runs = s.Runs[len(s.Runs)-maxRuns:]
	}
	s.UpdatedAt = time.Now()
	return r
}
