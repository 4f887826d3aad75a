// Package progress implements the learner progress state machine: which
// lessons and levels are open, how streaks continue or reset, which
// achievements are granted, when a level counts as complete, and how a
// placement test result becomes an initial level.
//
// Every evaluator is a pure function of an explicit snapshot, the injected
// curriculum catalog and a caller-supplied time. The Mutator composes them:
//
//	m := progress.NewMutator(catalog)
//	completion, err := m.CompleteLesson(snapshot, "b2-1", results, time.Now())
//	if err != nil {
//	    return err
//	}
//	repo.Save(ctx, completion.Progress, snapshot.Version)
//
// UserProgress values are only created through NewUserProgress or
// DecodeUserProgress, so collections are never nil.
package progress
