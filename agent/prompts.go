package agent

import (
	"fmt"
	"strings"
)

func executionPrompt(objective string, context []string, task string) string {
	return fmt.Sprintf(`
You are an AI who performs one task based on the following objective: %s.
Take into account these previously completed tasks: %s.
Your task: %s
Response:`, objective, strings.Join(context, ", "), task)
}

func creationPrompt(objective, result, taskDescription string, pending []string) string {
	return fmt.Sprintf(`
You are a task creation AI that uses the result of an execution agent to create new tasks with the following objective: %s,
The last completed task has the result: %s.
This result was based on this task description: %s. These are incomplete tasks: %s.
Based on the result, create new tasks to be completed by the AI system that do not overlap with incomplete tasks.
Return the tasks as an array.`, objective, result, taskDescription, strings.Join(pending, ", "))
}

func prioritizationPrompt(objective string, names []string, nextID int) string {
	return fmt.Sprintf(`
You are a task prioritization AI tasked with cleaning the formatting of and reprioritizing the following tasks: %s.
Consider the ultimate objective of your team:%s.
Do not remove any tasks. Return the result as a numbered list, like:
#. First task
#. Second task
Start the task list with number %d.`, strings.Join(names, ", "), objective, nextID)
}
