// Package commands implements the built-in editing commands and the
// handlers of the default and lock behaviors.
package commands

import "github.com/dshills/humane/internal/engine/history"

func init() {
	for kind, proto := range map[string]history.Command{
		"simple_add_text":    &SimpleAddText{},
		"add_text":           &AddText{},
		"simple_delete_text": &SimpleDeleteText{},
		"delete_text":        &DeleteText{},
		"simple_style":       &SimpleStyle{},
		"style":              &Style{},
		"add_action":         &AddAction{},
		"remove_action":      &RemoveAction{},
		"attach":             &Attach{},
		"lock":               &Lock{},
		"unlock":             &Unlock{},
		"lock_add_text":      &LockAddText{},
		"set_cursor":         &SetCursor{},
		"set_selection":      &SetSelection{},
		"set_selection_list": &SetSelectionList{},
		"select":             &Select{},
		"select_word":        &SelectWord{},
		"creep":              &Creep{},
		"leap":               &Leap{},
		"paste":              &Paste{},
		"copy":               &Copy{},
		"generated":          &Generated{},
		"undo":               &UndoLast{},
		"redo":               &RedoLast{},
		"clear_history":      &ClearHistory{},
	} {
		history.RegisterKind(kind, proto)
	}
}

// Register adds the built-in commands to r. Commands a user can invoke by
// name are registered in the user scope; building blocks such as AddText
// are system commands.
func Register(r *history.Registry) error {
	user := []history.Factory{
		func() history.Command { return &Lock{Behavior: LockBehavior} },
		func() history.Command { return &Unlock{} },
		func() history.Command { return &Paste{} },
		func() history.Command { return &Copy{} },
		func() history.Command { return &UndoLast{} },
		func() history.Command { return &RedoLast{} },
		func() history.Command { return &ClearHistory{} },
		func() history.Command { return &SelectWord{} },
	}
	system := []history.Factory{
		func() history.Command { return &Lock{Behavior: SystemLockBehavior} },
		func() history.Command { return &Lock{Behavior: FormLockBehavior} },
		func() history.Command { return &Unlock{System: true} },
		func() history.Command { return &AddText{} },
		func() history.Command { return &DeleteText{} },
		func() history.Command { return &Style{} },
		func() history.Command { return &Select{} },
		func() history.Command { return &Creep{Left: true} },
		func() history.Command { return &Creep{} },
		func() history.Command { return &Leap{} },
		func() history.Command { return &Leap{Backward: true} },
	}
	for _, f := range user {
		if err := r.Register(f, history.UserScope); err != nil {
			return err
		}
	}
	for _, f := range system {
		if err := r.Register(f, history.SystemScope); err != nil {
			return err
		}
	}
	return nil
}
