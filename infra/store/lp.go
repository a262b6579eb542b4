package store

import (
	"bufio"
	"fmt"
	"os"

	"github.com/kilianp07/podplan/core/model"
	"github.com/kilianp07/podplan/core/solver"
)

// WriteModel exports m in CPLEX LP format to path.
func WriteModel(path string, m solver.Model) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", model.ErrIO, cerr)
		}
	}()
	bw := bufio.NewWriter(f)
	if err := m.Write(bw); err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	return nil
}

// WriteModel exports the model of subset s next to its solutions.
func (s Solutions) WriteModel(sub model.Subset, m solver.Model) error {
	return WriteModel(s.Naming.ModelPath(sub), m)
}
