package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfSource(t *testing.T) {
	cases := []struct {
		source string
		want   SourceKind
	}{
		{"门诊.检查", SourceOutpatient},
		{"住院.手术", SourceInpatient},
		{"手工数据.m1", SourceManual},
		{"公卫数据.高血压随访", SourcePublicHealth},
		{"其他.门诊诊疗人次", SourceOther},
		{"未知.xx", SourceKind("")},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KindOfSource(tc.source), tc.source)
	}
}

func TestLookupSource(t *testing.T) {
	entry := LookupSource("公卫数据.高血压随访")
	require.NotNil(t, entry)
	assert.Equal(t, LevelStaff, entry.Scope)
	require.NotNil(t, entry.Datasource)
	assert.Equal(t, "ph_hypertension_visit", entry.Datasource.Table)

	// 目录里有但没有数据表配置
	noDS := LookupSource("公卫数据.健康教育活动")
	require.NotNil(t, noDS)
	assert.Nil(t, noDS.Datasource)

	assert.Nil(t, LookupSource("公卫数据.不存在"))
}

func TestManualItemID(t *testing.T) {
	assert.Equal(t, "m1", ManualItemID("手工数据.m1"))
	assert.Equal(t, "a.b", ManualItemID("手工数据.a.b"))
	assert.Equal(t, "", ManualItemID("手工数据"))
}
