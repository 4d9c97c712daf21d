package extraction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ProgressFileName sits under the bulk output root.
const ProgressFileName = ".progress.json"

type progressFile struct {
	Done [][]string `json:"done"`
}

// Progress is the set of (brand, model) pairs already completed in a
// bulk run. It is rewritten after every completed pair so a restart
// loses at most one unit of work.
type Progress struct {
	path string
	done map[[2]string]struct{}
}

// LoadProgress reads the progress file under outputDir. A missing or
// corrupt file yields an empty set: the per-pair CSV check still
// prevents refetching anything already on disk.
func LoadProgress(outputDir string) *Progress {
	p := &Progress{
		path: filepath.Join(outputDir, ProgressFileName),
		done: make(map[[2]string]struct{}),
	}

	raw, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	var pf progressFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return p
	}
	for _, pair := range pf.Done {
		if len(pair) == 2 {
			p.done[[2]string{pair[0], pair[1]}] = struct{}{}
		}
	}
	return p
}

func (p *Progress) Contains(brand, model string) bool {
	_, ok := p.done[[2]string{brand, model}]
	return ok
}

func (p *Progress) Add(brand, model string) {
	p.done[[2]string{brand, model}] = struct{}{}
}

func (p *Progress) Len() int {
	return len(p.done)
}

// Save rewrites the progress file.
func (p *Progress) Save() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}
	pf := progressFile{Done: make([][]string, 0, len(p.done))}
	for pair := range p.done {
		pf.Done = append(pf.Done, []string{pair[0], pair[1]})
	}
	raw, err := json.Marshal(pf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.path, raw, 0644); err != nil {
		return fmt.Errorf("could not write progress file: %w", err)
	}
	return nil
}
