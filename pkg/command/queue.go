package command

import "github.com/matzehuels/gridcraft/pkg/event"

// State is the undo/redo availability published after every queue transition.
type State struct {
	CanUndo bool
	CanRedo bool
}

// Queue is a linear command history with an undo/redo cursor.
//
// Commands at indices above the cursor form the redo tail. Executing a new
// command discards that tail. Undo with an empty history and Redo without a
// tail are caller bugs: check [Queue.CanUndo] and [Queue.CanRedo] first.
type Queue struct {
	commands []Command
	current  int

	// Changes fires with the fresh State after every Execute, Redo and Undo.
	Changes event.Emitter[State]
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{current: -1}
}

// Execute records cmd and runs it. A nil cmd means redo.
func (q *Queue) Execute(cmd Command) {
	if cmd == nil {
		q.Redo()
		return
	}
	q.commands = q.commands[:q.current+1]
	q.commands = append(q.commands, cmd)
	q.current++
	cmd.Execute()
	q.notify()
}

// Redo runs the command after the cursor again and advances the cursor.
func (q *Queue) Redo() {
	if !q.CanRedo() {
		panic("command: redo without a redo tail")
	}
	q.commands[q.current+1].Execute()
	q.current++
	q.notify()
}

// Undo reverts the command at the cursor and moves the cursor back.
func (q *Queue) Undo() {
	if !q.CanUndo() {
		panic("command: undo with empty history")
	}
	q.commands[q.current].Unexecute()
	q.current--
	q.notify()
}

// CanUndo reports whether there is a command to undo.
func (q *Queue) CanUndo() bool {
	return q.current != -1
}

// CanRedo reports whether there is a command to redo.
func (q *Queue) CanRedo() bool {
	return q.current < len(q.commands)-1
}

// State returns the current undo/redo availability.
func (q *Queue) State() State {
	return State{CanUndo: q.CanUndo(), CanRedo: q.CanRedo()}
}

// Len returns the number of recorded commands, including the redo tail.
func (q *Queue) Len() int {
	return len(q.commands)
}

// Current returns the cursor: the index of the last executed command, or -1.
func (q *Queue) Current() int {
	return q.current
}

// Peek returns the command that Undo would revert, or nil.
func (q *Queue) Peek() Command {
	if !q.CanUndo() {
		return nil
	}
	return q.commands[q.current]
}

func (q *Queue) notify() {
	q.Changes.Emit(q.State())
}
