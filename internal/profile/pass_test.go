package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/colprofiler/internal/colset"
)

type memRows struct{ rows [][]Value }

func (m *memRows) Open(ctx context.Context) (RowIter, error) {
	return &memIter{rows: m.rows}, nil
}

type memIter struct {
	rows [][]Value
	i    int
}

func (it *memIter) Next() bool {
	if it.i >= len(it.rows) {
		return false
	}
	it.i++
	return true
}

func (it *memIter) Row() []Value { return it.rows[it.i-1] }
func (it *memIter) Err() error   { return nil }
func (it *memIter) Close() error { return nil }

func cols(names ...string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Column{Ordinal: i, Name: n}
	}
	return out
}

func findDistribution(p *Profile, cs colset.ColumnSet) (Distribution, bool) {
	for _, d := range p.Distributions {
		if d.Columns == cs {
			return d, true
		}
	}
	return Distribution{}, false
}

func TestRun_ZeroRows(t *testing.T) {
	rows := &memRows{}
	p, err := Run(context.Background(), rows, cols("DEPTNO", "DNAME"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.RowCount)
	assert.Empty(t, p.Uniques)
	assert.Empty(t, p.FunctionalDependencies)

	empty, ok := findDistribution(p, colset.Empty)
	require.True(t, ok)
	assert.Equal(t, int64(0), empty.Cardinality)

	deptno, ok := findDistribution(p, colset.Of(0))
	require.True(t, ok)
	assert.Equal(t, int64(0), deptno.Cardinality)
}

func TestRun_SingleRow(t *testing.T) {
	rows := &memRows{rows: [][]Value{
		{int64(10), "ACCOUNTING"},
	}}
	p, err := Run(context.Background(), rows, cols("DEPTNO", "DNAME"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.RowCount)

	deptno, ok := findDistribution(p, colset.Of(0))
	require.True(t, ok)
	assert.Equal(t, int64(1), deptno.Cardinality)
	assert.Equal(t, []Value{int64(10)}, deptno.ValueSet)

	dname, ok := findDistribution(p, colset.Of(1))
	require.True(t, ok)
	assert.Equal(t, int64(1), dname.Cardinality)

	require.Len(t, p.Uniques, 1)
	assert.Equal(t, colset.Empty, p.Uniques[0].Columns)
}

func TestRun_TwoRows(t *testing.T) {
	rows := &memRows{rows: [][]Value{
		{int64(10), "ACCOUNTING"},
		{int64(20), "RESEARCH"},
	}}
	p, err := Run(context.Background(), rows, cols("DEPTNO", "DNAME"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.RowCount)

	var sawDeptno, sawDname bool
	for _, u := range p.Uniques {
		if u.Columns == colset.Of(0) {
			sawDeptno = true
		}
		if u.Columns == colset.Of(1) {
			sawDname = true
		}
	}
	assert.True(t, sawDeptno, "DEPTNO should be a unique key")
	assert.True(t, sawDname, "DNAME should be a unique key")

	_, compositeRegistered := findDistribution(p, colset.Of(0, 1))
	assert.False(t, compositeRegistered, "a superset of a known key should not surface as a Distribution")
}

func TestRun_FullDept(t *testing.T) {
	rows := &memRows{rows: [][]Value{
		{int64(10), "ACCOUNTING", "NEW YORK"},
		{int64(20), "RESEARCH", "DALLAS"},
		{int64(30), "SALES", "CHICAGO"},
		{int64(40), "OPERATIONS", "BOSTON"},
	}}
	p, err := Run(context.Background(), rows, cols("DEPTNO", "DNAME", "LOC"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.RowCount)
	assert.Len(t, p.Uniques, 3)
	assert.Empty(t, p.FunctionalDependencies)
}

func TestRun_FunctionalDependencyBothWays(t *testing.T) {
	rows := &memRows{rows: [][]Value{
		{"CLERK", int64(10)},
		{"CLERK", int64(10)},
		{"SALES", int64(20)},
		{"SALES", int64(20)},
	}}
	p, err := Run(context.Background(), rows, cols("JOB", "DEPTNO"), DefaultOptions())
	require.NoError(t, err)

	var jobToDept, deptToJob bool
	for _, fd := range p.FunctionalDependencies {
		if fd.Determinant == colset.Of(0) && fd.Dependent == 1 {
			jobToDept = true
		}
		if fd.Determinant == colset.Of(1) && fd.Dependent == 0 {
			deptToJob = true
		}
	}
	assert.True(t, jobToDept, "JOB should determine DEPTNO")
	assert.True(t, deptToJob, "DEPTNO should determine JOB")
}

func TestRun_NullsCountedOnce(t *testing.T) {
	rows := &memRows{rows: [][]Value{
		{int64(10), Null},
		{Null, Null},
		{int64(10), "X"},
	}}
	p, err := Run(context.Background(), rows, cols("A", "B"), DefaultOptions())
	require.NoError(t, err)

	a, ok := findDistribution(p, colset.Of(0))
	require.True(t, ok)
	assert.Equal(t, int64(1), a.NullCount)
	assert.Equal(t, int64(2), a.Cardinality) // 1 distinct value + 1 null bucket
}

func TestRun_RowShapeMismatch(t *testing.T) {
	rows := &memRows{rows: [][]Value{
		{int64(1), int64(2)},
		{int64(1)},
	}}
	_, err := Run(context.Background(), rows, cols("A", "B"), DefaultOptions())
	require.Error(t, err)
	var shapeErr *RowShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestRun_RejectsBadOrdinals(t *testing.T) {
	bad := []Column{{Ordinal: 1, Name: "A"}, {Ordinal: 0, Name: "B"}}
	_, err := Run(context.Background(), &memRows{}, bad, DefaultOptions())
	require.Error(t, err)
	var misuse *MisuseError
	require.ErrorAs(t, err, &misuse)
}

func TestRun_RejectsTinyCombinationsPerPass(t *testing.T) {
	opts := DefaultOptions()
	opts.CombinationsPerPass = 1
	_, err := Run(context.Background(), &memRows{}, cols("A"), opts)
	require.Error(t, err)
	var misuse *MisuseError
	require.ErrorAs(t, err, &misuse)
}

// empDeptJoinRows builds the EMP ⋈ DEPT (on DEPTNO) fixture of spec.md §8
// scenario 5: 14 employees across 3 of the 4 DEPT rows, columns EMPNO,
// ENAME, JOB, MGR, HIREDATE, SAL, COMM, DEPTNO, DNAME, LOC, DEPTNO0 (the
// duplicated join key). HIREDATE and SAL each repeat two of their values so
// that HIREDATE->MGR and SAL->JOB are real, non-key-trivial dependencies.
func empDeptJoinRows() *memRows {
	dept := map[int64][2]string{
		10: {"ACCOUNTING", "NEW YORK"},
		20: {"RESEARCH", "DALLAS"},
		30: {"SALES", "CHICAGO"},
	}
	type emp struct {
		empno    int64
		ename    string
		job      string
		mgr      Value
		hiredate string
		sal      int64
		comm     Value
		deptno   int64
	}
	emps := []emp{
		{7369, "SMITH", "CLERK", int64(7902), "1980-12-17", 800, Null, 20},
		{7499, "ALLEN", "SALESMAN", int64(7698), "1981-02-20", 1600, int64(300), 30},
		{7521, "WARD", "SALESMAN", int64(7698), "1981-02-20", 1250, int64(500), 30},
		{7566, "JONES", "MANAGER", int64(7839), "1981-04-02", 2975, Null, 20},
		{7654, "MARTIN", "SALESMAN", int64(7698), "1981-09-28", 1250, int64(1400), 30},
		{7698, "BLAKE", "MANAGER", int64(7839), "1981-05-01", 2850, Null, 30},
		{7782, "CLARK", "MANAGER", int64(7839), "1981-06-09", 2450, Null, 10},
		{7788, "SCOTT", "ANALYST", int64(7566), "1987-04-19", 3000, Null, 20},
		{7839, "KING", "PRESIDENT", Null, "1981-11-17", 5000, Null, 10},
		{7844, "TURNER", "SALESMAN", int64(7698), "1981-09-28", 1500, int64(0), 30},
		{7876, "ADAMS", "CLERK", int64(7788), "1987-05-23", 1100, Null, 20},
		{7900, "JAMES", "CLERK", int64(7698), "1981-12-03", 950, Null, 30},
		{7902, "FORD", "ANALYST", int64(7566), "1981-12-10", 3000, Null, 20},
		{7934, "MILLER", "CLERK", int64(7782), "1982-01-23", 1300, Null, 10},
	}
	rows := make([][]Value, len(emps))
	for i, e := range emps {
		d := dept[e.deptno]
		rows[i] = []Value{
			e.empno, e.ename, e.job, e.mgr, e.hiredate, e.sal, e.comm,
			e.deptno, d[0], d[1], e.deptno,
		}
	}
	return &memRows{rows: rows}
}

func empDeptJoinColumns() []Column {
	return cols("EMPNO", "ENAME", "JOB", "MGR", "HIREDATE", "SAL", "COMM", "DEPTNO", "DNAME", "LOC", "DEPTNO0")
}

func TestRun_EmpDeptJoin(t *testing.T) {
	opts := DefaultOptions()
	opts.CombinationsPerPass = 600
	p, err := Run(context.Background(), empDeptJoinRows(), empDeptJoinColumns(), opts)
	require.NoError(t, err)
	assert.Equal(t, int64(14), p.RowCount)

	deptno, ok := findDistribution(p, colset.Of(7))
	require.True(t, ok)
	assert.Equal(t, int64(3), deptno.Cardinality)

	deptno0, ok := findDistribution(p, colset.Of(10))
	require.True(t, ok)
	assert.Equal(t, int64(3), deptno0.Cardinality)

	var sawEmpno, sawEname bool
	for _, u := range p.Uniques {
		if u.Columns == colset.Of(0) {
			sawEmpno = true
		}
		if u.Columns == colset.Of(1) {
			sawEname = true
		}
	}
	assert.True(t, sawEmpno, "EMPNO should be a unique key")
	assert.True(t, sawEname, "ENAME should be a unique key")

	has := func(det colset.ColumnSet, dependent int) bool {
		for _, fd := range p.FunctionalDependencies {
			if fd.Determinant == det && fd.Dependent == dependent {
				return true
			}
		}
		return false
	}
	assert.True(t, has(colset.Of(7), 8), "DEPTNO should determine DNAME")
	assert.True(t, has(colset.Of(8), 7), "DNAME should determine DEPTNO")
	assert.True(t, has(colset.Of(5), 2), "SAL should determine JOB")
	assert.True(t, has(colset.Of(4), 3), "HIREDATE should determine MGR")

	assert.False(t, has(colset.Of(2, 5), 8), "{JOB,SAL} -> DNAME is non-minimal and must not be emitted")
	assert.False(t, has(colset.Of(0), 1), "EMPNO is already a key; it must not also surface as a determinant FD")
	assert.False(t, has(colset.Of(1), 0), "ENAME is already a key; it must not also surface as a determinant FD")
}

func TestRun_EmpDeptJoin_AllUninteresting(t *testing.T) {
	opts := DefaultOptions()
	opts.CombinationsPerPass = 10
	opts.Interest = func(*Space, int) bool { return false }
	p, err := Run(context.Background(), empDeptJoinRows(), empDeptJoinColumns(), opts)
	require.NoError(t, err)
	assert.Equal(t, int64(14), p.RowCount)

	// EMPNO (0) and ENAME (1) are keys: they surface as Uniques, not as
	// Distributions. Every other singleton gets a Distribution.
	for _, c := range []int{2, 3, 4, 5, 6, 7, 8, 9, 10} {
		_, ok := findDistribution(p, colset.Of(c))
		assert.True(t, ok, "singleton %d should still be profiled", c)
	}
	for _, c := range []int{0, 1} {
		_, ok := findDistribution(p, colset.Of(c))
		assert.False(t, ok, "key column %d should be reported as a Unique, not a Distribution", c)
	}
	_, ok := findDistribution(p, colset.Empty)
	assert.True(t, ok, "the empty-column Distribution should still be profiled")

	_, composite := findDistribution(p, colset.Of(7, 8))
	assert.False(t, composite, "no composite Distribution should form under an always-false interest predicate")
	assert.Empty(t, p.FunctionalDependencies, "no FDs between composite sets should be derived")
}

func TestRun_UninterestingPredicateStillEmitsSingletons(t *testing.T) {
	rows := &memRows{rows: [][]Value{
		{int64(1), int64(10), int64(100)},
		{int64(1), int64(10), int64(100)},
		{int64(2), int64(20), int64(200)},
		{int64(2), int64(20), int64(200)},
	}}
	opts := DefaultOptions()
	opts.CombinationsPerPass = 3
	opts.Interest = func(*Space, int) bool { return false }
	p, err := Run(context.Background(), rows, cols("A", "B", "C"), opts)
	require.NoError(t, err)

	for _, c := range []int{0, 1, 2} {
		_, ok := findDistribution(p, colset.Of(c))
		assert.True(t, ok, "singleton %d should still be profiled", c)
	}
	_, ok := findDistribution(p, colset.Of(0, 1))
	assert.False(t, ok, "no composite should form when every extension is rejected")
}
