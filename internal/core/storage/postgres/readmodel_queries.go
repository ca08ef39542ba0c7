package postgres

const (
	queryUpsertProject = `
		INSERT INTO rm_projects (project_id, title, creator_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id) DO UPDATE
		SET title = EXCLUDED.title, creator_id = EXCLUDED.creator_id, created_at = EXCLUDED.created_at
	`

	queryUpsertMember = `
		INSERT INTO rm_members (member_id, project_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (member_id) DO UPDATE
		SET project_id = EXCLUDED.project_id, user_id = EXCLUDED.user_id
	`

	queryUpsertStatus = `
		INSERT INTO rm_statuses (status_id, project_id, text, color)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (status_id) DO UPDATE
		SET project_id = EXCLUDED.project_id, text = EXCLUDED.text, color = EXCLUDED.color
	`

	queryDeleteStatus = `DELETE FROM rm_statuses WHERE status_id = $1`

	queryUpsertTask = `
		INSERT INTO rm_tasks (task_id, project_id, title, status_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (task_id) DO UPDATE
		SET project_id = EXCLUDED.project_id, title = EXCLUDED.title, status_id = EXCLUDED.status_id
	`

	queryUpdateTaskTitle  = `UPDATE rm_tasks SET title = $2 WHERE task_id = $1`
	queryUpdateTaskStatus = `UPDATE rm_tasks SET status_id = $2 WHERE task_id = $1`

	queryUpsertAssignment = `
		INSERT INTO rm_assignments (assignment_id, task_id, member_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (assignment_id) DO UPDATE
		SET task_id = EXCLUDED.task_id, member_id = EXCLUDED.member_id
	`

	queryUpsertUserProject = `
		INSERT INTO rm_user_projects (user_id, project_id, title)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, project_id) DO UPDATE
		SET title = EXCLUDED.title
	`

	queryUpsertUser = `
		INSERT INTO rm_users (user_id, username, realname)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username, realname = EXCLUDED.realname
	`

	queryUserProjectTitle = `
		SELECT title FROM rm_user_projects WHERE project_id = $1 ORDER BY seq ASC LIMIT 1
	`

	querySelectProject = `
		SELECT project_id, title, creator_id, created_at FROM rm_projects WHERE project_id = $1
	`

	querySelectMembers = `
		SELECT member_id, project_id, user_id FROM rm_members WHERE project_id = $1 ORDER BY seq ASC
	`

	querySelectStatuses = `
		SELECT status_id, project_id, text, color FROM rm_statuses WHERE project_id = $1 ORDER BY seq ASC
	`

	querySelectTasks = `
		SELECT task_id, project_id, title, status_id FROM rm_tasks WHERE project_id = $1 ORDER BY seq ASC
	`

	querySelectAssignments = `
		SELECT a.assignment_id, a.task_id, a.member_id
		FROM rm_assignments a
		JOIN rm_tasks t ON t.task_id = a.task_id
		WHERE t.project_id = $1
		ORDER BY a.seq ASC
	`

	querySelectUserProjects = `
		SELECT user_id, project_id, title FROM rm_user_projects WHERE user_id = $1 ORDER BY seq ASC
	`

	querySelectUser = `
		SELECT user_id, username, realname FROM rm_users WHERE user_id = $1
	`
)
