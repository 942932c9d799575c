package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create instances table
			CREATE TABLE instances (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'running', 'succeeded', 'failed', 'stopped')),
				project_id VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_instances_status ON instances(status);
			CREATE INDEX idx_instances_project_id ON instances(project_id);
			CREATE INDEX idx_instances_deleted_at ON instances(deleted_at);

			-- Create instance_nodes table. "id" is the server-assigned record
			-- identity; "node_id" is the graph-local identity edges refer to.
			CREATE TABLE instance_nodes (
				instance_id VARCHAR(255) NOT NULL REFERENCES instances(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL UNIQUE,
				node_id VARCHAR(255) NOT NULL,
				node_type VARCHAR(50) NOT NULL CHECK (node_type IN ('app', 'job')),
				template_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				position_x INT NOT NULL DEFAULT 0,
				position_y INT NOT NULL DEFAULT 0,
				status VARCHAR(50) NOT NULL DEFAULT 'pending',
				env_vars JSONB DEFAULT '[]',
				volume_mounts JSONB DEFAULT '[]',
				resources JSONB,
				timeout_seconds INT NOT NULL DEFAULT 0,
				PRIMARY KEY (instance_id, node_id)
			);

			CREATE INDEX idx_instance_nodes_instance_id ON instance_nodes(instance_id);
			CREATE INDEX idx_instance_nodes_template_id ON instance_nodes(template_id);

			-- Create instance_edges table
			CREATE TABLE instance_edges (
				instance_id VARCHAR(255) NOT NULL REFERENCES instances(id) ON DELETE CASCADE,
				edge_id VARCHAR(255) NOT NULL,
				source VARCHAR(255) NOT NULL,
				target VARCHAR(255) NOT NULL,
				PRIMARY KEY (instance_id, edge_id),
				UNIQUE (instance_id, source, target)
			);

			CREATE INDEX idx_instance_edges_instance_id ON instance_edges(instance_id);
		`,
		2: `
			-- Create templates table
			CREATE TABLE templates (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				kind VARCHAR(50) NOT NULL CHECK (kind IN ('app', 'job')),
				description TEXT NOT NULL DEFAULT '',
				containers JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_templates_kind ON templates(kind);
			CREATE INDEX idx_templates_name ON templates(name);

			-- Create pvcs table
			CREATE TABLE pvcs (
				pvc_name VARCHAR(255) NOT NULL,
				capacity VARCHAR(50) NOT NULL,
				resource_name VARCHAR(255) NOT NULL DEFAULT '',
				project_id VARCHAR(255) NOT NULL,
				PRIMARY KEY (project_id, pvc_name)
			);

			-- Create node_logs table
			CREATE TABLE node_logs (
				instance_id VARCHAR(255) NOT NULL,
				node_id VARCHAR(255) NOT NULL,
				logs TEXT NOT NULL DEFAULT '',
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (instance_id, node_id)
			);
		`,
	}
}
