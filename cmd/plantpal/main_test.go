// v0
// cmd/plantpal/main_test.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/NicoGruemmert/PlantPal/internal/plant"
	"github.com/NicoGruemmert/PlantPal/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PLANTPAL_PROPERTIES_PATH", filepath.Join(t.TempDir(), "none.properties"))
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLevelCommand(t *testing.T) {
	out, err := execute(t, "level", "--xp", "13")
	require.NoError(t, err)
	var v levelView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, levelView{XP: 13, Level: 4, NextAt: 20}, v)

	out, err = execute(t, "level", "--xp", "0", "-o", "yaml")
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal([]byte(out), &v))
	assert.Equal(t, uint16(1), v.Level)
	assert.Equal(t, uint16(2), v.NextAt)

	_, err = execute(t, "level", "-o", "xml")
	require.Error(t, err)
}

func TestInspectCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvs.db")
	db, err := store.OpenSQLite(path, "")
	require.NoError(t, err)
	snap := plant.Snapshot{
		PlantID:             2,
		Profile:             plant.DefaultProfile(),
		XP:                  7,
		Level:               3,
		UnlockedItems:       uint16(plant.UnlockSunglasses | plant.UnlockCrown),
		UnlockedAvatars:     uint16(plant.UnlockDefaultPlant),
		UnlockedBackgrounds: 0,
	}
	require.NoError(t, plant.Slots{}.SaveSnapshot(context.Background(), db, 2, snap))
	require.NoError(t, db.Close())

	out, err := execute(t, "inspect", "--slot", "2", "--store", "sqlite", "--path", path)
	require.NoError(t, err)
	var v inspectView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, snap, v.Snapshot)
	assert.Equal(t, []string{"sunglasses", "crown"}, v.Items)
	assert.Equal(t, []string{"default_plant"}, v.Avatars)
	assert.Empty(t, v.Bgs)
	assert.Equal(t, uint16(12), v.NextAt)

	_, err = execute(t, "inspect", "--slot", "1", "--store", "sqlite", "--path", path)
	require.ErrorIs(t, err, plant.ErrNotFound)

	_, err = execute(t, "inspect", "--slot", "9", "--store", "sqlite", "--path", path)
	require.ErrorIs(t, err, plant.ErrInvalidArgument)
}
