package config

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
	"text/template"

	"github.com/jpalmerr/longrun"
)

// Job is one operation described by the configuration, independent of the
// service it will be sent to.
type Job struct {
	Name        string
	Path        string
	URL         string
	OperationID string
	Model       string
	Pages       string
	Locale      string
	Features    []string
	Labels      map[string]string
}

// BuildJobs converts parsed configuration into jobs.
//
// Documents are returned first, in file order, followed by the expansion of
// every batch. Batch dimensions are expanded via cartesian product.
// Returns an error if two jobs end up with the same name.
func BuildJobs(cfg *Config) ([]Job, error) {
	var jobs []Job

	for _, dc := range cfg.Documents {
		jobs = append(jobs, Job{
			Name:        dc.Name,
			Path:        dc.Path,
			URL:         dc.URL,
			OperationID: dc.OperationID,
			Model:       dc.Model,
			Pages:       dc.Pages,
			Locale:      dc.Locale,
			Features:    dc.Features,
			Labels:      maps.Clone(dc.Labels),
		})
	}

	for _, bc := range cfg.Batches {
		batchJobs, err := buildBatchJobs(bc)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, batchJobs...)
	}

	seen := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		if seen[job.Name] {
			return nil, fmt.Errorf("duplicate job name %q", job.Name)
		}
		seen[job.Name] = true
	}

	return jobs, nil
}

// buildBatchJobs expands a BatchConfig into one job per dimension combination.
func buildBatchJobs(bc BatchConfig) ([]Job, error) {
	source := bc.PathTemplate
	if bc.URLTemplate != "" {
		source = bc.URLTemplate
	}

	// missingkey=error fails fast on missing template variables
	tmpl, err := template.New("source").Option("missingkey=error").Parse(source)
	if err != nil {
		return nil, fmt.Errorf("batch (%s): invalid template: %w", bc.Name, err)
	}

	combinations := cartesianProduct(bc.Dimensions)

	jobs := make([]Job, 0, len(combinations))
	for _, combo := range combinations {
		data := combo
		if bc.URLTemplate != "" {
			data = urlEncodeMap(combo)
		}

		var buf strings.Builder
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("batch (%s) with dimensions %v: template execution failed: %w", bc.Name, combo, err)
		}

		// dimension labels first, static labels override
		labels := make(map[string]string, len(combo)+len(bc.Labels))
		maps.Copy(labels, combo)
		maps.Copy(labels, bc.Labels)

		job := Job{
			Name:     batchJobName(bc.Name, combo),
			Model:    bc.Model,
			Pages:    bc.Pages,
			Locale:   bc.Locale,
			Features: bc.Features,
			Labels:   labels,
		}
		if bc.URLTemplate != "" {
			job.URL = buf.String()
		} else {
			job.Path = buf.String()
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

// batchJobName creates a name in the format "base-v1-v2", with values ordered
// by sorted keys.
func batchJobName(baseName string, combo map[string]string) string {
	keys := slices.Sorted(maps.Keys(combo))

	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, baseName)
	for _, k := range keys {
		parts = append(parts, combo[k])
	}
	return strings.Join(parts, "-")
}

// cartesianProduct generates all combinations of dimension values.
// Keys are sorted alphabetically for deterministic output.
// Values maintain their original slice order.
//
// Example:
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	keys := slices.Sorted(maps.Keys(dims))

	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
	}

	total := 1
	for _, k := range keys {
		total *= len(dims[k])
	}

	result := make([]map[string]string, 0, total)

	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		// increment indices (rightmost first)
		for i := len(keys) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
			if i == 0 {
				return result
			}
		}
	}
}

// urlEncodeMap returns a new map with all values URL-encoded.
func urlEncodeMap(m map[string]string) map[string]string {
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = url.QueryEscape(v)
	}
	return result
}

// BuildStrategy converts the polling configuration into a [longrun.Strategy].
func BuildStrategy(p PollingConfig) (longrun.Strategy, error) {
	opts := []longrun.StrategyOption{
		longrun.WithInterval(p.Interval.Duration()),
		longrun.WithMaxAttempts(p.MaxAttempts),
		longrun.WithMaxElapsed(p.Timeout.Duration()),
	}
	if p.MinInterval != nil {
		opts = append(opts, longrun.WithMinInterval(p.MinInterval.Duration()))
	}

	switch p.Strategy {
	case "", StrategyFixed:
		return longrun.NewFixedStrategy(opts...)
	case StrategyExponential:
		opts = append(opts,
			longrun.WithMaxInterval(p.MaxInterval.Duration()),
			longrun.WithMultiplier(p.Multiplier),
		)
		return longrun.NewExponentialStrategy(opts...)
	default:
		return nil, fmt.Errorf("unknown polling strategy %q", p.Strategy)
	}
}

// StatusWordMap converts the configured REST status words into statuses.
func (r *RESTConfig) StatusWordMap() (map[string]longrun.Status, error) {
	if len(r.StatusWords) == 0 {
		return nil, nil
	}

	words := make(map[string]longrun.Status, len(r.StatusWords))
	for word, name := range r.StatusWords {
		status, err := longrun.ParseStatus(name)
		if err != nil {
			return nil, fmt.Errorf("status_words[%s]: %w", word, err)
		}
		words[word] = status
	}
	return words, nil
}
