package server

import (
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/umairdev1/project-management-tool/internal/models"
)

// enums backs one validation tag per domain enum. Empty values pass so the
// tags combine with omitempty and required.
var enums = map[string][]string{
	"userrole":      names(models.RoleAdmin, models.RoleProjectManager, models.RoleTeamMember, models.RoleViewer),
	"userstatus":    names(models.UserActive, models.UserInactive, models.UserSuspended),
	"projectstatus": names(models.ProjectPlanned, models.ProjectInProgress, models.ProjectOnHold, models.ProjectCompleted, models.ProjectCancelled),
	"priority":      names(models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent),
	"memberrole":    names(models.MemberOwner, models.MemberManager, models.MemberMember, models.MemberViewer),
	"taskstatus":    names(models.TaskTodo, models.TaskInProgress, models.TaskReview, models.TaskCompleted, models.TaskCancelled),
	"tasktype":      names(models.TaskFeature, models.TaskBug, models.TaskImprovement, models.TaskDocumentation, models.TaskTesting, models.TaskOther),
	"roomtype":      names(models.RoomProject, models.RoomDirect, models.RoomGroup),
	"messagetype":   names(models.MessageText, models.MessageFile, models.MessageImage, models.MessageSystem, models.MessageTaskComment),
}

func names[T ~string](vs ...T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

var registerOnce sync.Once

// registerValidators teaches gin's validator the domain enums and makes field
// errors report json names.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		for tag, allowed := range enums {
			allowed := allowed
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				s := fl.Field().String()
				return s == "" || slices.Contains(allowed, s)
			})
		}
	})
}
