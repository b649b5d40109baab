package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"reqflow.io/reqflow/internal/domain"
)

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
departments:
  - id: dept-eng
    name: Engineering
users:
  - email: cfo@example.com
    first_name: Casey
    last_name: Flores
    password: longenough
    role: approver
    authority_level: 3
    department_id: dept-eng
workflows:
  - department_id: dept-eng
    category: it_equipment
    amount_threshold: 5000
    approver_sequence: [1, 2, 3]
`), 0o600))

	data, err := loadSeedFile(path)
	require.NoError(t, err)

	require.Len(t, data.Departments, 1)
	require.Equal(t, "dept-eng", data.Departments[0].ID)

	require.Len(t, data.Users, 1)
	require.Equal(t, "approver", data.Users[0].Role)
	require.Equal(t, 3, data.Users[0].AuthorityLevel)

	require.Len(t, data.Workflows, 1)
	require.Equal(t, []int{1, 2, 3}, data.Workflows[0].ApproverSequence)
	require.Equal(t, 5000.0, data.Workflows[0].AmountThreshold)
}

func TestLoadSeedFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("departments: {bad"), 0o600))

	_, err := loadSeedFile(path)
	require.Error(t, err)
}

func TestDefaultSeedIsComplete(t *testing.T) {
	data := defaultSeed()

	require.NotEmpty(t, data.Departments)
	require.NotEmpty(t, data.Users)
	require.NotEmpty(t, data.Workflows)

	admin := data.Users[0]
	require.Equal(t, string(domain.RoleAdmin), admin.Role)
	require.Equal(t, data.Departments[0].ID, admin.DepartmentID)

	wf := data.Workflows[0]
	require.Equal(t, data.Departments[0].ID, wf.DepartmentID)
	require.Zero(t, wf.AmountThreshold)
	require.NotEmpty(t, wf.ApproverSequence)
}
