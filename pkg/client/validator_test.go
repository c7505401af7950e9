package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
	"github.com/jomadlcrz/Class-Schedule-System/internal/model"
	pkgerrors "github.com/jomadlcrz/Class-Schedule-System/pkg/errors"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/validation"
)

const testDebounce = 20 * time.Millisecond

// fakeChecker 记录请求；taken 中的值视为已存在
type fakeChecker struct {
	mu    sync.Mutex
	calls []dto.CheckDuplicatesRequest
	taken map[string]string
	err   error
	hook  func(ctx context.Context, req *dto.CheckDuplicatesRequest)
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{taken: map[string]string{}}
}

func (f *fakeChecker) CheckDuplicates(ctx context.Context, req *dto.CheckDuplicatesRequest) (*dto.DuplicateResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, *req)
	hook, err := f.hook, f.err
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if field, ok := f.taken[req.CourseCode]; ok && req.CourseCode != "" {
		return &dto.DuplicateResult{IsDuplicate: true, Field: field}, nil
	}
	if field, ok := f.taken[req.DescriptiveTitle]; ok && req.DescriptiveTitle != "" {
		return &dto.DuplicateResult{IsDuplicate: true, Field: field}, nil
	}
	return &dto.DuplicateResult{}, nil
}

func (f *fakeChecker) markTaken(value, field string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taken[value] = field
}

func (f *fakeChecker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeChecker) lastCall() dto.CheckDuplicatesRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeWriter struct {
	created  *dto.CreateScheduleRequest
	updateID string
	store    *fakeChecker
}

func (w *fakeWriter) Create(_ context.Context, form *dto.CreateScheduleRequest) (*model.Schedule, error) {
	w.created = form
	if w.store != nil {
		w.store.markTaken(form.CourseCode, dto.FieldCourseCode)
		w.store.markTaken(form.DescriptiveTitle, dto.FieldDescriptiveTitle)
	}
	return &model.Schedule{ScheduleID: "new-id", CourseCode: form.CourseCode}, nil
}

func (w *fakeWriter) Update(_ context.Context, id string, form *dto.CreateScheduleRequest) (*model.Schedule, error) {
	w.updateID = id
	return &model.Schedule{ScheduleID: id, CourseCode: form.CourseCode}, nil
}

func validForm() *dto.CreateScheduleRequest {
	return &dto.CreateScheduleRequest{
		CourseCode:       "CS101",
		DescriptiveTitle: "Intro to Programming",
		Units:            "3",
		Days:             "MWF",
		Time:             "9:00 AM-10:00 AM",
		Room:             "R1",
		Instructor:       "Smith",
	}
}

func waitState(t *testing.T, v *Validator, field Field, want State) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return v.Status(field).State == want
	}, time.Second, 5*time.Millisecond, "字段状态应变为 %s", want)
}

func TestValidator_EmptyInputIsCleanWithoutCall(t *testing.T) {
	checker := newFakeChecker()
	v := NewValidator(checker, WithDebounce(testDebounce))
	defer v.Close()

	v.Input(FieldCourseCode, "   ")

	assert.Equal(t, StateClean, v.Status(FieldCourseCode).State)
	time.Sleep(3 * testDebounce)
	assert.Zero(t, checker.callCount())
}

func TestValidator_DebounceCollapsesKeystrokes(t *testing.T) {
	checker := newFakeChecker()
	v := NewValidator(checker, WithDebounce(testDebounce))
	defer v.Close()

	for _, s := range []string{"C", "CS", "CS1", "CS10", "CS101"} {
		v.Input(FieldCourseCode, s)
		assert.Equal(t, StatePending, v.Status(FieldCourseCode).State)
	}

	waitState(t, v, FieldCourseCode, StateClean)
	assert.Equal(t, 1, checker.callCount())
	call := checker.lastCall()
	assert.Equal(t, "CS101", call.CourseCode)
	assert.Empty(t, call.DescriptiveTitle, "单字段查重只携带一个字段")
}

func TestValidator_ConflictBlocksSubmit(t *testing.T) {
	checker := newFakeChecker()
	checker.taken["CS101"] = dto.FieldCourseCode
	v := NewValidator(checker, WithDebounce(testDebounce))
	defer v.Close()

	v.Input(FieldCourseCode, "CS101")
	waitState(t, v, FieldCourseCode, StateConflict)

	assert.Equal(t, "Course Code already exists", v.Status(FieldCourseCode).Message)
	assert.False(t, v.CanSubmit())

	// 修改为未占用的值后恢复
	v.Input(FieldCourseCode, "CS102")
	waitState(t, v, FieldCourseCode, StateClean)
	assert.True(t, v.CanSubmit())
}

func TestValidator_ConflictClearedByEmptyInput(t *testing.T) {
	checker := newFakeChecker()
	checker.taken["Intro"] = dto.FieldDescriptiveTitle
	v := NewValidator(checker, WithDebounce(testDebounce))
	defer v.Close()

	v.Input(FieldDescriptiveTitle, "Intro")
	waitState(t, v, FieldDescriptiveTitle, StateConflict)
	assert.Equal(t, "Descriptive Title already exists", v.Status(FieldDescriptiveTitle).Message)

	v.Input(FieldDescriptiveTitle, "")
	assert.Equal(t, StateClean, v.Status(FieldDescriptiveTitle).State)
	assert.True(t, v.CanSubmit())
}

func TestValidator_StaleResponseIgnored(t *testing.T) {
	checker := newFakeChecker()
	checker.taken["OLD"] = dto.FieldCourseCode

	firstStarted := make(chan struct{})
	release := make(chan struct{})
	var cancelled atomic.Bool
	var once sync.Once
	checker.hook = func(ctx context.Context, req *dto.CheckDuplicatesRequest) {
		if req.CourseCode != "OLD" {
			return
		}
		once.Do(func() { close(firstStarted) })
		<-release
		cancelled.Store(ctx.Err() != nil)
	}

	v := NewValidator(checker, WithDebounce(testDebounce))
	defer v.Close()

	v.Input(FieldCourseCode, "OLD")
	<-firstStarted

	// 旧请求在途时输入新值
	v.Input(FieldCourseCode, "NEW")
	close(release)

	waitState(t, v, FieldCourseCode, StateClean)
	time.Sleep(3 * testDebounce)
	assert.Equal(t, StateClean, v.Status(FieldCourseCode).State, "旧请求的重复结果不应生效")
	assert.Eventually(t, cancelled.Load, time.Second, 5*time.Millisecond, "新输入应取消旧请求")
	assert.Equal(t, "NEW", checker.lastCall().CourseCode)
}

func TestValidator_FieldsAreIndependent(t *testing.T) {
	checker := newFakeChecker()
	checker.taken["CS101"] = dto.FieldCourseCode
	v := NewValidator(checker, WithDebounce(testDebounce))
	defer v.Close()

	v.Input(FieldCourseCode, "CS101")
	v.Input(FieldDescriptiveTitle, "Algorithms")

	waitState(t, v, FieldCourseCode, StateConflict)
	waitState(t, v, FieldDescriptiveTitle, StateClean)
	assert.Equal(t, 2, checker.callCount())
}

func TestValidator_CheckErrorLeavesFieldClean(t *testing.T) {
	checker := newFakeChecker()
	checker.err = errors.New("network down")
	v := NewValidator(checker, WithDebounce(testDebounce))
	defer v.Close()

	v.Input(FieldCourseCode, "CS101")
	waitState(t, v, FieldCourseCode, StateClean)

	err := v.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")
	assert.NoError(t, v.Err(), "Err 读取后清空")
	assert.True(t, v.CanSubmit())
}

func TestValidator_ExcludeIDSentWhenEditing(t *testing.T) {
	checker := newFakeChecker()
	v := NewValidator(checker, WithDebounce(testDebounce), WithExcludeID("abc"))
	defer v.Close()

	v.Input(FieldDescriptiveTitle, "Algorithms")
	waitState(t, v, FieldDescriptiveTitle, StateClean)
	require.Equal(t, 1, checker.callCount())
	assert.Equal(t, "abc", checker.lastCall().ExcludeID)
}

func TestValidator_OnChangeReportsTransitions(t *testing.T) {
	checker := newFakeChecker()
	checker.taken["CS101"] = dto.FieldCourseCode

	var mu sync.Mutex
	var states []State
	v := NewValidator(checker, WithDebounce(testDebounce), WithOnChange(func(f Field, s FieldStatus) {
		mu.Lock()
		defer mu.Unlock()
		if f == FieldCourseCode {
			states = append(states, s.State)
		}
	}))
	defer v.Close()

	v.Input(FieldCourseCode, "CS101")

	// 回调在状态写入之后调用
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) == 2
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StatePending, StateConflict}, states)
}

func TestValidator_CloseStopsPendingTimer(t *testing.T) {
	checker := newFakeChecker()
	v := NewValidator(checker, WithDebounce(testDebounce))

	v.Input(FieldCourseCode, "CS101")
	v.Close()
	time.Sleep(3 * testDebounce)

	assert.Zero(t, checker.callCount())
	v.Input(FieldCourseCode, "CS102")
	time.Sleep(3 * testDebounce)
	assert.Zero(t, checker.callCount(), "关闭后输入被忽略")
}

// ── Submit ──

func TestValidator_SubmitCreates(t *testing.T) {
	checker := newFakeChecker()
	w := &fakeWriter{}
	v := NewValidator(checker, WithDebounce(testDebounce))
	defer v.Close()

	got, err := v.Submit(context.Background(), w, validForm())
	require.NoError(t, err)
	assert.Equal(t, "new-id", got.ScheduleID)
	require.NotNil(t, w.created)
	assert.Empty(t, w.updateID)

	call := checker.lastCall()
	assert.Equal(t, "CS101", call.CourseCode)
	assert.Equal(t, "Intro to Programming", call.DescriptiveTitle)
	assert.Empty(t, call.ExcludeID)
}

func TestValidator_SubmitDuringDebounceIgnoresPendingTimer(t *testing.T) {
	checker := newFakeChecker()
	w := &fakeWriter{store: checker}
	v := NewValidator(checker, WithDebounce(testDebounce))
	defer v.Close()

	// 防抖窗口内直接提交
	v.Input(FieldCourseCode, "CS101")
	v.Input(FieldDescriptiveTitle, "Intro to Programming")
	_, err := v.Submit(context.Background(), w, validForm())
	require.NoError(t, err)

	time.Sleep(5 * testDebounce)
	for _, f := range []Field{FieldCourseCode, FieldDescriptiveTitle} {
		assert.Equal(t, StateClean, v.Status(f).State, "提交后旧定时器不应把刚保存的记录标为冲突")
	}
	assert.True(t, v.CanSubmit())
	assert.Equal(t, 1, checker.callCount(), "只应发出提交时的整体查重")
}

func TestValidator_SubmitUpdatesWithExcludeID(t *testing.T) {
	checker := newFakeChecker()
	w := &fakeWriter{}
	v := NewValidator(checker, WithExcludeID("abc"))
	defer v.Close()

	got, err := v.Submit(context.Background(), w, validForm())
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ScheduleID)
	assert.Equal(t, "abc", w.updateID)
	assert.Nil(t, w.created)
	assert.Equal(t, "abc", checker.lastCall().ExcludeID)
}

func TestValidator_SubmitShapeErrors(t *testing.T) {
	tests := []struct {
		name  string
		rules validation.Rules
		edit  func(*dto.CreateScheduleRequest)
		want  string
	}{
		{"缺少字段", validation.Rules{}, func(f *dto.CreateScheduleRequest) { f.Room = " " }, validation.MsgMissingFields},
		{"学分为 0", validation.Rules{}, func(f *dto.CreateScheduleRequest) { f.Units = "0" }, validation.MsgInvalidUnits},
		{"学分非数字", validation.Rules{}, func(f *dto.CreateScheduleRequest) { f.Units = "three" }, validation.MsgInvalidUnits},
		{"严格上课日", validation.Rules{StrictDays: true}, func(f *dto.CreateScheduleRequest) { f.Days = "XYZ" }, validation.MsgInvalidDays},
		{"严格时间段", validation.Rules{StrictTime: true}, func(f *dto.CreateScheduleRequest) { f.Time = "10:00 AM-9:00 AM" }, validation.MsgInvalidTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := newFakeChecker()
			w := &fakeWriter{}
			v := NewValidator(checker, WithRules(tt.rules))
			defer v.Close()

			form := validForm()
			tt.edit(form)
			_, err := v.Submit(context.Background(), w, form)

			vErr, ok := pkgerrors.AsValidation(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, vErr.Message)
			assert.Zero(t, checker.callCount(), "格式错误时不查重")
			assert.Nil(t, w.created)
		})
	}
}

func TestValidator_SubmitDuplicateMarksField(t *testing.T) {
	checker := newFakeChecker()
	checker.taken["Intro to Programming"] = dto.FieldDescriptiveTitle
	w := &fakeWriter{}
	v := NewValidator(checker)
	defer v.Close()

	_, err := v.Submit(context.Background(), w, validForm())
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Nil(t, w.created)

	st := v.Status(FieldDescriptiveTitle)
	assert.Equal(t, StateConflict, st.State)
	assert.Equal(t, "Descriptive Title already exists", st.Message)
	assert.False(t, v.CanSubmit())

	// 冲突未解除前再次提交直接拒绝，不发请求
	calls := checker.callCount()
	_, err = v.Submit(context.Background(), w, validForm())
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, calls, checker.callCount())
}

func TestValidator_SubmitCheckError(t *testing.T) {
	checker := newFakeChecker()
	checker.err = errors.New("boom")
	w := &fakeWriter{}
	v := NewValidator(checker)
	defer v.Close()

	_, err := v.Submit(context.Background(), w, validForm())
	assert.EqualError(t, err, "boom")
	assert.Nil(t, w.created)
}
