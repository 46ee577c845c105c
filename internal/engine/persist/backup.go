package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

const (
	textBackupPrefix = "_humane_text_"
	textBackupSuffix = ".txt"
)

func (s *Store) textBackupPath(n int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%010d%s", textBackupPrefix, n, textBackupSuffix))
}

// TextBackup writes text to a new numbered backup file and removes the
// oldest ones beyond the configured maximum.
func (s *Store) TextBackup(text string) error {
	if s.maxBackups == 0 {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	nums, err := s.textBackupNumbers()
	if err != nil {
		return err
	}
	next := 1
	if len(nums) > 0 {
		next = nums[len(nums)-1] + 1
	}
	if err := os.WriteFile(s.textBackupPath(next), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write text backup: %w", err)
	}
	nums = append(nums, next)
	for len(nums) > s.maxBackups {
		if err := os.Remove(s.textBackupPath(nums[0])); err != nil {
			return fmt.Errorf("remove text backup: %w", err)
		}
		nums = nums[1:]
	}
	return nil
}

// TextBackups returns the paths of the existing text backups, oldest first.
func (s *Store) TextBackups() ([]string, error) {
	nums, err := s.textBackupNumbers()
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(nums))
	for i, n := range nums {
		paths[i] = s.textBackupPath(n)
	}
	return paths, nil
}

func (s *Store) textBackupNumbers() ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, textBackupPrefix+"*"+textBackupSuffix))
	if err != nil {
		return nil, err
	}
	var nums []int
	for _, m := range matches {
		base := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), textBackupPrefix), textBackupSuffix)
		n, err := strconv.Atoi(base)
		if err != nil || n < 1 {
			continue
		}
		nums = append(nums, n)
	}
	slices.Sort(nums)
	return nums, nil
}
