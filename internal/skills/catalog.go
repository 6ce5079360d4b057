package skills

// Definition describes one skill to the reasoning engine.
type Definition struct {
	Name        Name
	Description string
	Parameters  map[string]any
}

func Catalog() []Definition {
	taskID := prop("integer", "ID of the task, as shown by list_tasks. Must be a positive integer.")
	taskID["minimum"] = 1

	title := prop("string", "Short title of the task, 1-200 characters.")
	title["minLength"] = 1
	title["maxLength"] = MaxTitleLength

	description := prop("string", "Optional longer description, up to 1000 characters.")
	description["maxLength"] = MaxDescriptionLength

	return []Definition{
		{
			Name:        AddTask,
			Description: "Create a new task for the user.",
			Parameters: object(map[string]any{
				"title":       title,
				"description": description,
			}, "title"),
		},
		{
			Name:        ListTasks,
			Description: "List all of the user's tasks with their IDs and completion status.",
			Parameters:  object(map[string]any{}),
		},
		{
			Name:        UpdateTask,
			Description: "Change the title and/or description of an existing task. Supply at least one of title or description.",
			Parameters: object(map[string]any{
				"task_id":     taskID,
				"title":       title,
				"description": description,
			}, "task_id"),
		},
		{
			Name:        CompleteTask,
			Description: "Mark a task as completed. Completing an already completed task is fine.",
			Parameters: object(map[string]any{
				"task_id": taskID,
			}, "task_id"),
		},
		{
			Name:        DeleteTask,
			Description: "Permanently delete a single task.",
			Parameters: object(map[string]any{
				"task_id": taskID,
			}, "task_id"),
		},
	}
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
