// Package skills implements the five task operations the assistant can invoke:
// add, list, update, complete and delete. Every skill validates its
// parameters before touching the network and issues exactly one backend call.
package skills

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"todochat/internal/apperr"
	"todochat/internal/backend"
	"todochat/internal/credential"
)

type Name string

const (
	AddTask      Name = "add_task"
	ListTasks    Name = "list_tasks"
	UpdateTask   Name = "update_task"
	CompleteTask Name = "complete_task"
	DeleteTask   Name = "delete_task"
)

// Names lists every skill in catalog order.
var Names = []Name{AddTask, ListTasks, UpdateTask, CompleteTask, DeleteTask}

// Gateway is the slice of the Phase II API the skills depend on.
type Gateway interface {
	CreateTask(ctx context.Context, cred credential.Credential, in backend.CreateTaskInput) (*backend.Task, error)
	ListTasks(ctx context.Context, cred credential.Credential) ([]backend.Task, error)
	UpdateTask(ctx context.Context, cred credential.Credential, id int64, in backend.UpdateTaskInput) (*backend.Task, error)
	CompleteTask(ctx context.Context, cred credential.Credential, id int64) (*backend.Task, error)
	DeleteTask(ctx context.Context, cred credential.Credential, id int64) error
}

type Skill interface {
	Name() Name
	Validate(p Params) error
	Execute(ctx context.Context, p Params, cred credential.Credential) (*Result, error)
}

// Result is the success payload of one invocation. Exactly one of Task,
// Tasks or Message is meaningful, depending on the skill.
type Result struct {
	Skill   Name
	Task    *backend.Task
	Tasks   []backend.Task
	Message string
}

// Set binds the five skills to a gateway. It holds no per-request state.
type Set struct {
	gw     Gateway
	logger *zap.Logger
}

func NewSet(gw Gateway, logger *zap.Logger) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Set{gw: gw, logger: logger.Named("skills")}
}

// Lookup resolves a name to its skill. Names outside the five registered
// skills yield an UnknownSkillError.
func (s *Set) Lookup(name string) (Skill, error) {
	switch Name(name) {
	case AddTask:
		return addTask{s}, nil
	case ListTasks:
		return listTasks{s}, nil
	case UpdateTask:
		return updateTask{s}, nil
	case CompleteTask:
		return completeTask{s}, nil
	case DeleteTask:
		return deleteTask{s}, nil
	default:
		return nil, apperr.New(apperr.KindUnknownSkill,
			fmt.Sprintf("unknown tool %q; available tools are add_task, list_tasks, update_task, complete_task, delete_task", name))
	}
}

// Invoke looks up and executes a skill.
func (s *Set) Invoke(ctx context.Context, name string, p Params, cred credential.Credential) (*Result, error) {
	skill, err := s.Lookup(name)
	if err != nil {
		return nil, err
	}
	res, err := skill.Execute(ctx, p, cred)
	if err != nil {
		s.logger.Info("skill failed",
			zap.String("skill", name),
			zap.Stringer("kind", apperr.KindOf(err)),
			credential.Field(cred),
		)
		return nil, err
	}
	s.logger.Debug("skill succeeded", zap.String("skill", name))
	return res, nil
}

func invalid(verr *ValidationError) error {
	return apperr.Wrap(apperr.KindCallerInput, verr.Message, verr)
}

func requireCredential(cred credential.Credential) error {
	if cred.IsZero() {
		return apperr.Authentication("You need to be signed in to manage tasks. Please sign in and try again.")
	}
	return nil
}

type addTask struct{ s *Set }

func (addTask) Name() Name { return AddTask }

func (addTask) Validate(p Params) error {
	if _, verr := validateCreate(p); verr != nil {
		return invalid(verr)
	}
	return nil
}

func (k addTask) Execute(ctx context.Context, p Params, cred credential.Credential) (*Result, error) {
	args, verr := validateCreate(p)
	if verr != nil {
		return nil, invalid(verr)
	}
	if err := requireCredential(cred); err != nil {
		return nil, err
	}
	task, err := k.s.gw.CreateTask(ctx, cred, backend.CreateTaskInput{
		Title:       args.title,
		Description: args.description,
	})
	if err != nil {
		return nil, mapBackendError(err, 0)
	}
	return &Result{Skill: AddTask, Task: task}, nil
}

type listTasks struct{ s *Set }

func (listTasks) Name() Name { return ListTasks }

func (listTasks) Validate(Params) error { return nil }

func (k listTasks) Execute(ctx context.Context, _ Params, cred credential.Credential) (*Result, error) {
	if err := requireCredential(cred); err != nil {
		return nil, err
	}
	tasks, err := k.s.gw.ListTasks(ctx, cred)
	if err != nil {
		return nil, mapBackendError(err, 0)
	}
	if tasks == nil {
		tasks = []backend.Task{}
	}
	return &Result{Skill: ListTasks, Tasks: tasks}, nil
}

type updateTask struct{ s *Set }

func (updateTask) Name() Name { return UpdateTask }

func (updateTask) Validate(p Params) error {
	if _, verr := validateUpdate(p); verr != nil {
		return invalid(verr)
	}
	return nil
}

func (k updateTask) Execute(ctx context.Context, p Params, cred credential.Credential) (*Result, error) {
	args, verr := validateUpdate(p)
	if verr != nil {
		return nil, invalid(verr)
	}
	if err := requireCredential(cred); err != nil {
		return nil, err
	}
	task, err := k.s.gw.UpdateTask(ctx, cred, args.id, backend.UpdateTaskInput{
		Title:       args.title,
		Description: args.description,
	})
	if err != nil {
		return nil, mapBackendError(err, args.id)
	}
	return &Result{Skill: UpdateTask, Task: task}, nil
}

type completeTask struct{ s *Set }

func (completeTask) Name() Name { return CompleteTask }

func (completeTask) Validate(p Params) error {
	if _, verr := validateID(p); verr != nil {
		return invalid(verr)
	}
	return nil
}

func (k completeTask) Execute(ctx context.Context, p Params, cred credential.Credential) (*Result, error) {
	args, verr := validateID(p)
	if verr != nil {
		return nil, invalid(verr)
	}
	if err := requireCredential(cred); err != nil {
		return nil, err
	}
	task, err := k.s.gw.CompleteTask(ctx, cred, args.id)
	if err != nil {
		return nil, mapBackendError(err, args.id)
	}
	return &Result{Skill: CompleteTask, Task: task}, nil
}

type deleteTask struct{ s *Set }

func (deleteTask) Name() Name { return DeleteTask }

func (deleteTask) Validate(p Params) error {
	if _, verr := validateID(p); verr != nil {
		return invalid(verr)
	}
	return nil
}

func (k deleteTask) Execute(ctx context.Context, p Params, cred credential.Credential) (*Result, error) {
	args, verr := validateID(p)
	if verr != nil {
		return nil, invalid(verr)
	}
	if err := requireCredential(cred); err != nil {
		return nil, err
	}
	if err := k.s.gw.DeleteTask(ctx, cred, args.id); err != nil {
		return nil, mapBackendError(err, args.id)
	}
	return &Result{Skill: DeleteTask, Message: fmt.Sprintf("Task %d has been deleted.", args.id)}, nil
}
