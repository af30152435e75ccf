package i18n

import "golang.org/x/text/language"

var tables = map[language.Tag]map[string]string{
	language.English: {
		"labs.loadError":               "Failed to load labs",
		"labs.refreshSuccess":          "Lab list refreshed",
		"labs.createSuccess":           "Lab {{name}} created",
		"labs.createError":             "Failed to create lab",
		"labs.updateSuccess":           "Lab {{name}} updated",
		"labs.updateError":             "Failed to update lab",
		"labs.deleteSuccess":           "Lab {{name}} deleted",
		"labs.deleteError":             "Failed to delete lab",
		"labs.toggleStatusActivated":   "Lab {{name}} activated",
		"labs.toggleStatusDeactivated": "Lab {{name}} deactivated",
		"labs.toggleStatusError":       "Failed to change lab status",
		"labs.setupStepCreateSuccess":  "Setup step {{title}} added",
		"labs.setupStepCreateError":    "Failed to add setup step",
		"labs.setupStepUpdateSuccess":  "Setup step {{title}} updated",
		"labs.setupStepUpdateError":    "Failed to update setup step",
		"labs.setupStepDeleteSuccess":  "Setup step {{title}} deleted",
		"labs.setupStepDeleteError":    "Failed to delete setup step",
		"labs.setupStepImportSuccess":  "{{count}} setup steps imported",
		"labs.setupStepImportError":    "Failed to import setup steps",
		"labs.setupStepPruneSuccess":   "{{count}} setup steps deleted",
		"labs.setupStepPruneError":     "Failed to delete setup steps",
		"labs.moveStepUpSuccess":       "Step moved up",
		"labs.moveStepDownSuccess":     "Step moved down",
		"labs.moveStepError":           "Failed to move step",
		"labs.moveStepTied":            "Steps share the same order, renumber them first",
		"labs.renumberSuccess":         "Steps renumbered",
		"labs.renumberError":           "Failed to renumber steps",
		"labs.loadingLab":              "Loading lab...",
		"labs.notFound":                "Lab not found",
		"labs.noLabs":                  "No labs yet",
		"labs.noMatch":                 "No labs match the current filters",
		"labs.noSteps":                 "This lab has no setup steps",
		"labs.confirmDelete":           "Delete lab {{name}} and all of its setup steps?",
		"labs.name":                    "Name",
		"labs.baseImage":               "Base image",
		"labs.estimatedTime":           "Time",
		"labs.status":                  "Status",
		"labs.createdAt":               "Created",
		"labs.minutes":                 "{{count}} min",
		"labs.setupSteps":              "Setup steps",
		"steps.title":                  "Title",
		"steps.command":                "Command",
		"steps.exitCode":               "Exit code",
		"steps.retries":                "Retries",
		"steps.timeout":                "Timeout",
		"steps.continueOnFailure":      "Continue on failure",
		"steps.seconds":                "{{count}}s",
		"steps.confirmDelete":          "Delete setup step {{title}}?",
		"steps.confirmPrune":           "Delete {{count}} setup steps?",
		"common.active":                "Active",
		"common.inactive":              "Inactive",
		"common.yes":                   "yes",
		"common.no":                    "no",
		"common.pageOf":                "Page {{page}} of {{total}} ({{count}} labs)",
		"common.cancelled":             "Cancelled",
		"settings.theme":               "Theme",
		"settings.color":               "Color",
		"settings.locale":              "Language",
		"settings.sidebar":             "Sidebar",
		"settings.saved":               "Settings saved",
		"settings.sidebarOpen":         "open",
		"settings.sidebarCollapsed":    "collapsed",
	},
	language.Vietnamese: {
		"labs.loadError":               "Không thể tải danh sách lab",
		"labs.refreshSuccess":          "Đã làm mới danh sách lab",
		"labs.createSuccess":           "Đã tạo lab {{name}}",
		"labs.createError":             "Không thể tạo lab",
		"labs.updateSuccess":           "Đã cập nhật lab {{name}}",
		"labs.updateError":             "Không thể cập nhật lab",
		"labs.deleteSuccess":           "Đã xóa lab {{name}}",
		"labs.deleteError":             "Không thể xóa lab",
		"labs.toggleStatusActivated":   "Đã kích hoạt lab {{name}}",
		"labs.toggleStatusDeactivated": "Đã vô hiệu hóa lab {{name}}",
		"labs.toggleStatusError":       "Không thể thay đổi trạng thái lab",
		"labs.setupStepCreateSuccess":  "Đã thêm bước cài đặt {{title}}",
		"labs.setupStepCreateError":    "Không thể thêm bước cài đặt",
		"labs.setupStepUpdateSuccess":  "Đã cập nhật bước cài đặt {{title}}",
		"labs.setupStepUpdateError":    "Không thể cập nhật bước cài đặt",
		"labs.setupStepDeleteSuccess":  "Đã xóa bước cài đặt {{title}}",
		"labs.setupStepDeleteError":    "Không thể xóa bước cài đặt",
		"labs.setupStepImportSuccess":  "Đã nhập {{count}} bước cài đặt",
		"labs.setupStepImportError":    "Không thể nhập các bước cài đặt",
		"labs.setupStepPruneSuccess":   "Đã xóa {{count}} bước cài đặt",
		"labs.setupStepPruneError":     "Không thể xóa các bước cài đặt",
		"labs.moveStepUpSuccess":       "Đã di chuyển bước lên",
		"labs.moveStepDownSuccess":     "Đã di chuyển bước xuống",
		"labs.moveStepError":           "Không thể di chuyển bước",
		"labs.moveStepTied":            "Các bước có cùng thứ tự, hãy đánh số lại trước",
		"labs.renumberSuccess":         "Đã đánh số lại các bước",
		"labs.renumberError":           "Không thể đánh số lại các bước",
		"labs.loadingLab":              "Đang tải lab...",
		"labs.notFound":                "Không tìm thấy lab",
		"labs.noLabs":                  "Chưa có lab nào",
		"labs.noMatch":                 "Không có lab nào khớp bộ lọc",
		"labs.noSteps":                 "Lab này chưa có bước cài đặt",
		"labs.confirmDelete":           "Xóa lab {{name}} và tất cả bước cài đặt của nó?",
		"labs.name":                    "Tên",
		"labs.baseImage":               "Image gốc",
		"labs.estimatedTime":           "Thời gian",
		"labs.status":                  "Trạng thái",
		"labs.createdAt":               "Ngày tạo",
		"labs.minutes":                 "{{count}} phút",
		"labs.setupSteps":              "Các bước cài đặt",
		"steps.title":                  "Tiêu đề",
		"steps.command":                "Lệnh",
		"steps.exitCode":               "Mã thoát",
		"steps.retries":                "Số lần thử",
		"steps.timeout":                "Thời gian chờ",
		"steps.continueOnFailure":      "Tiếp tục khi lỗi",
		"steps.seconds":                "{{count}} giây",
		"steps.confirmDelete":          "Xóa bước cài đặt {{title}}?",
		"steps.confirmPrune":           "Xóa {{count}} bước cài đặt?",
		"common.active":                "Hoạt động",
		"common.inactive":              "Không hoạt động",
		"common.yes":                   "có",
		"common.no":                    "không",
		"common.pageOf":                "Trang {{page}} / {{total}} ({{count}} lab)",
		"common.cancelled":             "Đã hủy",
		"settings.theme":               "Giao diện",
		"settings.color":               "Màu sắc",
		"settings.locale":              "Ngôn ngữ",
		"settings.sidebar":             "Thanh bên",
		"settings.saved":               "Đã lưu cài đặt",
		"settings.sidebarOpen":         "mở",
		"settings.sidebarCollapsed":    "thu gọn",
	},
}
