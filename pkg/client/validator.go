package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
	"github.com/jomadlcrz/Class-Schedule-System/internal/model"
	pkgerrors "github.com/jomadlcrz/Class-Schedule-System/pkg/errors"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/validation"
)

// DefaultDebounce 输入停止后多久发起查重
const DefaultDebounce = 500 * time.Millisecond

// Field 参与实时查重的字段
type Field int

const (
	FieldCourseCode Field = iota
	FieldDescriptiveTitle
)

// Label 字段展示名，与服务端查重结果中的 field 一致
func (f Field) Label() string {
	if f == FieldCourseCode {
		return dto.FieldCourseCode
	}
	return dto.FieldDescriptiveTitle
}

// State 字段查重状态
type State int

const (
	StateClean State = iota
	StatePending
	StateConflict
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConflict:
		return "conflict"
	default:
		return "clean"
	}
}

// FieldStatus 字段当前状态与提示文案
type FieldStatus struct {
	State   State
	Message string
}

// ErrDuplicate 提交前的整体查重命中
var ErrDuplicate = errors.New("duplicate record")

// DuplicateChecker 查重接口，*Client 实现
type DuplicateChecker interface {
	CheckDuplicates(ctx context.Context, req *dto.CheckDuplicatesRequest) (*dto.DuplicateResult, error)
}

// ScheduleWriter 提交接口，*Client 实现
type ScheduleWriter interface {
	Create(ctx context.Context, form *dto.CreateScheduleRequest) (*model.Schedule, error)
	Update(ctx context.Context, id string, form *dto.CreateScheduleRequest) (*model.Schedule, error)
}

// fieldState 单字段状态：同一时刻最多一个定时器和一个在途请求
type fieldState struct {
	status FieldStatus
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

// Validator 录入表单的实时查重
//
// 每次非空输入都会重置该字段的防抖定时器；定时器到期后发起单字段查重。
// 新输入到来时取消旧定时器和旧请求，并递增代数，旧响应到达后直接丢弃。
type Validator struct {
	checker   DuplicateChecker
	rules     validation.Rules
	debounce  time.Duration
	excludeID string
	onChange  func(Field, FieldStatus)

	mu     sync.Mutex
	fields [2]*fieldState
	err    error
	closed bool
}

// ValidatorOption Validator 选项
type ValidatorOption func(*Validator)

// WithDebounce 设置防抖间隔
func WithDebounce(d time.Duration) ValidatorOption {
	return func(v *Validator) { v.debounce = d }
}

// WithRules 设置提交前的格式校验规则
func WithRules(r validation.Rules) ValidatorOption {
	return func(v *Validator) { v.rules = r }
}

// WithExcludeID 编辑已有记录时排除自身
func WithExcludeID(id string) ValidatorOption {
	return func(v *Validator) { v.excludeID = id }
}

// WithOnChange 字段状态变化回调，在内部 goroutine 中调用，不持有锁
func WithOnChange(fn func(Field, FieldStatus)) ValidatorOption {
	return func(v *Validator) { v.onChange = fn }
}

// NewValidator 创建 Validator
func NewValidator(checker DuplicateChecker, opts ...ValidatorOption) *Validator {
	v := &Validator{
		checker:  checker,
		debounce: DefaultDebounce,
		fields:   [2]*fieldState{{}, {}},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Input 字段输入变化
func (v *Validator) Input(field Field, value string) {
	value = strings.TrimSpace(value)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	fs := v.fields[field]
	fs.gen++
	v.stopLocked(fs)

	if value == "" {
		changed := v.setLocked(fs, FieldStatus{State: StateClean})
		v.mu.Unlock()
		if changed {
			v.notify(field, FieldStatus{State: StateClean})
		}
		return
	}

	gen := fs.gen
	changed := v.setLocked(fs, FieldStatus{State: StatePending})
	fs.timer = time.AfterFunc(v.debounce, func() { v.fire(field, value, gen) })
	v.mu.Unlock()
	if changed {
		v.notify(field, FieldStatus{State: StatePending})
	}
}

// fire 定时器到期，发起单字段查重
func (v *Validator) fire(field Field, value string, gen uint64) {
	v.mu.Lock()
	fs := v.fields[field]
	if v.closed || fs.gen != gen {
		v.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	fs.cancel = cancel
	fs.timer = nil
	excludeID := v.excludeID
	v.mu.Unlock()

	req := &dto.CheckDuplicatesRequest{ExcludeID: excludeID}
	if field == FieldCourseCode {
		req.CourseCode = value
	} else {
		req.DescriptiveTitle = value
	}
	res, err := v.checker.CheckDuplicates(ctx, req)
	cancel()

	v.mu.Lock()
	if v.closed || fs.gen != gen {
		v.mu.Unlock()
		return
	}
	fs.cancel = nil
	next := FieldStatus{State: StateClean}
	switch {
	case err != nil:
		v.err = err
	case res.IsDuplicate:
		next = FieldStatus{State: StateConflict, Message: field.Label() + " already exists"}
	}
	changed := v.setLocked(fs, next)
	v.mu.Unlock()
	if changed {
		v.notify(field, next)
	}
}

// Status 字段当前状态
func (v *Validator) Status(field Field) FieldStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fields[field].status
}

// CanSubmit 任一字段处于冲突状态时不可提交
func (v *Validator) CanSubmit() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, fs := range v.fields {
		if fs.status.State == StateConflict {
			return false
		}
	}
	return true
}

// Err 最近一次查重请求失败的原因，读取后清空
func (v *Validator) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	err := v.err
	v.err = nil
	return err
}

// Close 停止所有定时器并取消在途请求
func (v *Validator) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	for _, fs := range v.fields {
		fs.gen++
		v.stopLocked(fs)
	}
}

// Submit 提交表单：格式校验 → 双字段整体查重 → 新建或更新
// excludeID 为空时新建，否则更新该记录
func (v *Validator) Submit(ctx context.Context, w ScheduleWriter, form *dto.CreateScheduleRequest) (*model.Schedule, error) {
	if !v.CanSubmit() {
		return nil, ErrDuplicate
	}
	if msg := v.rules.Check(form.Fields()); msg != "" {
		return nil, pkgerrors.NewValidation(msg)
	}

	// 整体查重覆盖两个字段，提交后不再接受此前的单字段查重结果
	v.mu.Lock()
	excludeID := v.excludeID
	var cleared []Field
	for i, fs := range v.fields {
		fs.gen++
		v.stopLocked(fs)
		if fs.status.State == StatePending && v.setLocked(fs, FieldStatus{State: StateClean}) {
			cleared = append(cleared, Field(i))
		}
	}
	v.mu.Unlock()
	for _, f := range cleared {
		v.notify(f, FieldStatus{State: StateClean})
	}

	res, err := v.checker.CheckDuplicates(ctx, &dto.CheckDuplicatesRequest{
		CourseCode:       strings.TrimSpace(form.CourseCode),
		DescriptiveTitle: strings.TrimSpace(form.DescriptiveTitle),
		ExcludeID:        excludeID,
	})
	if err != nil {
		return nil, err
	}
	if res.IsDuplicate {
		field := FieldDescriptiveTitle
		if res.Field == dto.FieldCourseCode {
			field = FieldCourseCode
		}
		status := FieldStatus{State: StateConflict, Message: res.Field + " already exists"}
		v.mu.Lock()
		changed := v.setLocked(v.fields[field], status)
		v.mu.Unlock()
		if changed {
			v.notify(field, status)
		}
		return nil, ErrDuplicate
	}

	if excludeID == "" {
		return w.Create(ctx, form)
	}
	return w.Update(ctx, excludeID, form)
}

func (v *Validator) stopLocked(fs *fieldState) {
	if fs.timer != nil {
		fs.timer.Stop()
		fs.timer = nil
	}
	if fs.cancel != nil {
		fs.cancel()
		fs.cancel = nil
	}
}

func (v *Validator) setLocked(fs *fieldState, s FieldStatus) bool {
	if fs.status == s {
		return false
	}
	fs.status = s
	return true
}

func (v *Validator) notify(field Field, s FieldStatus) {
	if v.onChange != nil {
		v.onChange(field, s)
	}
}
