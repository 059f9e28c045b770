package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DisplayName derives the assignment name of a person: the name alone, or
// "name-purpose" when a purpose is set.
func DisplayName(name, purpose string) string {
	name = strings.TrimSpace(name)
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return name
	}
	return name + "-" + purpose
}

// uniqueDisplayName returns base, or base#id if another person already uses
// base. Caller must hold a lock.
func (s *Store) uniqueDisplayName(base string, id int64) string {
	for _, p := range s.persons {
		if p.ID != id && p.DisplayName == base {
			return fmt.Sprintf("%s#%d", base, id)
		}
	}
	return base
}

// assigneeCount returns how many numbers are assigned to name. Caller must
// hold a lock.
func (s *Store) assigneeCount(name string) int {
	count := 0
	for _, n := range s.numbers {
		if n.Assignee == name {
			count++
		}
	}
	return count
}

// AssigneeOptions returns the display names numbers can be assigned to, in
// store order. Any other string is still accepted by Export and Import.
func (s *Service) AssigneeOptions() []string {
	var names []string
	s.store.view(func() {
		names = make([]string, 0, len(s.store.persons))
		for _, p := range s.store.persons {
			names = append(names, p.DisplayName)
		}
	})
	return names
}

// Person returns the person with the given id.
func (s *Service) Person(id int64) (PersonRecord, error) {
	var (
		rec PersonRecord
		ok  bool
	)
	s.store.view(func() {
		if i := s.store.personIndex(id); i >= 0 {
			rec, ok = s.store.persons[i], true
		}
	})
	if !ok {
		return PersonRecord{}, notFound(CollectionPersons, id)
	}
	return rec, nil
}

// AddPerson creates a person.
func (s *Service) AddPerson(ctx context.Context, in PersonInput) (PersonRecord, error) {
	in, err := cleanPersonInput(in)
	if err != nil {
		return PersonRecord{}, err
	}

	var rec PersonRecord
	err = s.run(ctx, "add_person", func(ctx context.Context, logger *slog.Logger) error {
		snap := s.store.takeSnapshot()

		var adopted int
		s.store.update(func() {
			id := s.store.nextPersonID()
			rec = PersonRecord{
				ID:          id,
				Name:        in.Name,
				Purpose:     in.Purpose,
				Remark:      in.Remark,
				DisplayName: s.store.uniqueDisplayName(DisplayName(in.Name, in.Purpose), id),
			}
			s.store.persons = append(s.store.persons, rec)
			adopted = s.store.assigneeCount(rec.DisplayName)
		})

		if err := s.commit(ctx, logger, snap, CollectionPersons); err != nil {
			return err
		}
		s.appendLog(ctx, logger, ActionAddPerson, fmt.Sprintf("添加人员 %s", rec.DisplayName)+adoptedNote(logger, rec.DisplayName, adopted))
		return nil
	})
	if err != nil {
		return PersonRecord{}, err
	}
	return rec, nil
}

// UpdatePerson edits a person. When the display name changes, every number
// assigned to the old name moves to the new one in the same operation; the
// count of moved numbers is returned.
func (s *Service) UpdatePerson(ctx context.Context, id int64, in PersonInput) (PersonRecord, int, error) {
	in, err := cleanPersonInput(in)
	if err != nil {
		return PersonRecord{}, 0, err
	}

	var (
		rec      PersonRecord
		migrated int
	)
	err = s.run(ctx, "update_person", func(ctx context.Context, logger *slog.Logger) error {
		snap := s.store.takeSnapshot()

		var (
			opErr   error
			oldName string
			adopted int
		)
		s.store.update(func() {
			i := s.store.personIndex(id)
			if i < 0 {
				opErr = notFound(CollectionPersons, id)
				return
			}
			p := &s.store.persons[i]
			oldName = p.DisplayName

			p.Name = in.Name
			p.Purpose = in.Purpose
			p.Remark = in.Remark
			p.DisplayName = s.store.uniqueDisplayName(DisplayName(in.Name, in.Purpose), id)
			rec = *p

			if rec.DisplayName != oldName {
				adopted = s.store.assigneeCount(rec.DisplayName)
				for j := range s.store.numbers {
					if s.store.numbers[j].Assignee == oldName {
						s.store.numbers[j].Assignee = rec.DisplayName
						migrated++
					}
				}
			}
		})
		if opErr != nil {
			return opErr
		}

		touched := []Collection{CollectionPersons}
		if migrated > 0 {
			touched = []Collection{CollectionNumbers, CollectionPersons}
		}
		if err := s.commit(ctx, logger, snap, touched...); err != nil {
			migrated = 0
			return err
		}

		content := fmt.Sprintf("编辑人员 %s", rec.DisplayName)
		if rec.DisplayName != oldName {
			content = fmt.Sprintf("编辑人员 %s → %s，迁移 %d 条号码", oldName, rec.DisplayName, migrated)
			content += adoptedNote(logger, rec.DisplayName, adopted)
		}
		s.appendLog(ctx, logger, ActionEditPerson, content)
		return nil
	})
	if err != nil {
		return PersonRecord{}, 0, err
	}
	return rec, migrated, nil
}

// DeletePerson removes a person. If numbers are still assigned to them the
// call fails with ErrPersonInUse, unless release is set, in which case those
// numbers become unassigned in the same operation. The count of released
// numbers is returned. As with numbers, a deleted id is only withheld until
// the Store is reloaded.
func (s *Service) DeletePerson(ctx context.Context, id int64, release bool) (PersonRecord, int, error) {
	var (
		rec      PersonRecord
		released int
	)
	err := s.run(ctx, "delete_person", func(ctx context.Context, logger *slog.Logger) error {
		snap := s.store.takeSnapshot()

		var opErr error
		s.store.update(func() {
			i := s.store.personIndex(id)
			if i < 0 {
				opErr = notFound(CollectionPersons, id)
				return
			}
			rec = s.store.persons[i]

			inUse := 0
			for _, n := range s.store.numbers {
				if n.Assignee == rec.DisplayName {
					inUse++
				}
			}
			if inUse > 0 && !release {
				opErr = fmt.Errorf("%s has %d numbers: %w", rec.DisplayName, inUse, ErrPersonInUse)
				return
			}

			for j := range s.store.numbers {
				if s.store.numbers[j].Assignee == rec.DisplayName {
					s.store.numbers[j].Assignee = ""
					released++
				}
			}
			s.store.persons = append(s.store.persons[:i:i], s.store.persons[i+1:]...)
		})
		if opErr != nil {
			return opErr
		}

		touched := []Collection{CollectionPersons}
		if released > 0 {
			touched = []Collection{CollectionNumbers, CollectionPersons}
		}
		if err := s.commit(ctx, logger, snap, touched...); err != nil {
			released = 0
			return err
		}

		content := fmt.Sprintf("删除人员 %s", rec.DisplayName)
		if released > 0 {
			content += fmt.Sprintf("，释放 %d 条号码", released)
		}
		s.appendLog(ctx, logger, ActionDeletePerson, content)
		return nil
	})
	if err != nil {
		return PersonRecord{}, 0, err
	}
	return rec, released, nil
}

// adoptedNote warns when a person takes over a display name that numbers
// already carried as a free-form assignee, and returns the log suffix.
func adoptedNote(logger *slog.Logger, name string, adopted int) string {
	if adopted == 0 {
		return ""
	}
	logger.Warn("person takes over numbers already assigned to this name",
		"assignee", name,
		"numbers", adopted,
	)
	return fmt.Sprintf("，已有 %d 条号码使用该名称", adopted)
}

// cleanPersonInput trims fields and requires a name.
func cleanPersonInput(in PersonInput) (PersonInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Purpose = strings.TrimSpace(in.Purpose)
	in.Remark = strings.TrimSpace(in.Remark)
	if in.Name == "" {
		return in, ValidationError{Field: "name", Message: "name is required"}
	}
	return in, nil
}
