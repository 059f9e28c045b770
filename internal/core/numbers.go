package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// ManualSource is the fileName tag of numbers added one at a time.
const ManualSource = "手动添加"

// Number returns the number with the given id.
func (s *Service) Number(id int64) (NumberRecord, error) {
	var (
		rec NumberRecord
		ok  bool
	)
	s.store.view(func() {
		if i := s.store.numberIndex(id); i >= 0 {
			rec, ok = s.store.numbers[i].clone(), true
		}
	})
	if !ok {
		return NumberRecord{}, notFound(CollectionNumbers, id)
	}
	return rec, nil
}

// AddNumber adds a single number. The phone must be usable and not already
// in the roster.
func (s *Service) AddNumber(ctx context.Context, in NumberInput) (NumberRecord, error) {
	in, err := cleanNumberInput(in)
	if err != nil {
		return NumberRecord{}, err
	}

	var rec NumberRecord
	err = s.run(ctx, "add_number", func(ctx context.Context, logger *slog.Logger) error {
		snap := s.store.takeSnapshot()

		var dupErr error
		s.store.update(func() {
			if other, dup := s.store.phoneIndex()[NormalizePhone(in.PhoneNumber)]; dup {
				dupErr = fmt.Errorf("%s (id %d): %w", in.PhoneNumber, other, ErrDuplicatePhone)
				return
			}
			rec = NumberRecord{
				ID:          s.store.nextNumberID(),
				PhoneNumber: in.PhoneNumber,
				Name:        in.Name,
				Age:         in.Age,
				Assignee:    in.Assignee,
				ImportTime:  s.timestamp(),
				FileName:    ManualSource,
				Note:        in.Note,
			}
			s.store.numbers = append(s.store.numbers, rec)
			rec = rec.clone()
		})
		if dupErr != nil {
			return dupErr
		}

		if err := s.commit(ctx, logger, snap, CollectionNumbers); err != nil {
			return err
		}
		s.appendLog(ctx, logger, ActionAddNumber, fmt.Sprintf("添加号码 %s（ID %d）", rec.PhoneNumber, rec.ID))
		return nil
	})
	if err != nil {
		return NumberRecord{}, err
	}
	return rec, nil
}

// UpdateNumber replaces the editable fields of a number. Import metadata is
// kept.
func (s *Service) UpdateNumber(ctx context.Context, id int64, in NumberInput) (NumberRecord, error) {
	in, err := cleanNumberInput(in)
	if err != nil {
		return NumberRecord{}, err
	}

	var rec NumberRecord
	err = s.run(ctx, "update_number", func(ctx context.Context, logger *slog.Logger) error {
		snap := s.store.takeSnapshot()

		var opErr error
		s.store.update(func() {
			i := s.store.numberIndex(id)
			if i < 0 {
				opErr = notFound(CollectionNumbers, id)
				return
			}
			if other, dup := s.store.phoneIndex()[NormalizePhone(in.PhoneNumber)]; dup && other != id {
				opErr = fmt.Errorf("%s (id %d): %w", in.PhoneNumber, other, ErrDuplicatePhone)
				return
			}
			n := &s.store.numbers[i]
			n.PhoneNumber = in.PhoneNumber
			n.Name = in.Name
			n.Age = in.Age
			n.Assignee = in.Assignee
			n.Note = in.Note
			rec = n.clone()
		})
		if opErr != nil {
			return opErr
		}

		if err := s.commit(ctx, logger, snap, CollectionNumbers); err != nil {
			return err
		}
		s.appendLog(ctx, logger, ActionEditNumber, fmt.Sprintf("编辑号码 %s（ID %d）", rec.PhoneNumber, rec.ID))
		return nil
	})
	if err != nil {
		return NumberRecord{}, err
	}
	return rec, nil
}

// DeleteNumber removes a number. Its id is not handed out again while this
// Store stays loaded. The high-water mark is not persisted: after a reload the
// next id is the largest stored id plus one, so deleting the highest id and
// reloading hands that id out again.
func (s *Service) DeleteNumber(ctx context.Context, id int64) (NumberRecord, error) {
	var rec NumberRecord
	err := s.run(ctx, "delete_number", func(ctx context.Context, logger *slog.Logger) error {
		snap := s.store.takeSnapshot()

		var opErr error
		s.store.update(func() {
			i := s.store.numberIndex(id)
			if i < 0 {
				opErr = notFound(CollectionNumbers, id)
				return
			}
			rec = s.store.numbers[i].clone()
			s.store.numbers = append(s.store.numbers[:i:i], s.store.numbers[i+1:]...)
		})
		if opErr != nil {
			return opErr
		}

		if err := s.commit(ctx, logger, snap, CollectionNumbers); err != nil {
			return err
		}
		s.appendLog(ctx, logger, ActionDeleteNumber, fmt.Sprintf("删除号码 %s（ID %d）", rec.PhoneNumber, rec.ID))
		return nil
	})
	if err != nil {
		return NumberRecord{}, err
	}
	return rec, nil
}

// cleanNumberInput trims fields and rejects unusable values.
func cleanNumberInput(in NumberInput) (NumberInput, error) {
	in.PhoneNumber = CleanCell(in.PhoneNumber)
	in.Name = strings.TrimSpace(in.Name)
	in.Assignee = strings.TrimSpace(in.Assignee)
	in.Note = strings.TrimSpace(in.Note)

	key := NormalizePhone(in.PhoneNumber)
	if key == "" || !strings.ContainsFunc(key, unicode.IsDigit) {
		return in, ValidationError{Field: "phoneNumber", Value: in.PhoneNumber, Message: "phone number is required and must contain digits"}
	}
	if in.Age != nil {
		if *in.Age < 0 {
			return in, ValidationError{Field: "age", Value: FormatAge(in.Age), Message: "age must not be negative"}
		}
		age := *in.Age
		in.Age = &age
	}
	return in, nil
}
