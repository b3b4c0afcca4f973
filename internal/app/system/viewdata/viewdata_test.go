package viewdata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratasim/internal/app/system/session"
	"github.com/dalemusser/stratasim/internal/domain/models"
)

func TestNew_Defaults(t *testing.T) {
	Init(models.SiteSettings{}, false)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	vm := New(r)

	if vm.SiteName != models.DefaultSiteName {
		t.Errorf("SiteName = %q, want %q", vm.SiteName, models.DefaultSiteName)
	}
	if string(vm.FooterHTML) != "<p>"+models.DefaultFooterHTML+"</p>" {
		t.Errorf("FooterHTML = %q", vm.FooterHTML)
	}
	if vm.HistoryEnabled {
		t.Error("HistoryEnabled = true, want false")
	}
}

func TestNewBaseVM_UsesConfiguredSettings(t *testing.T) {
	Init(models.SiteSettings{SiteName: "Outbreak Lab", FooterHTML: "<b>lab</b><script>x</script>"}, true)
	t.Cleanup(func() { Init(models.SiteSettings{}, false) })

	r := httptest.NewRequest(http.MethodGet, "/history", nil)
	r = session.WithWorkbenchID(r, "wb-1")
	vm := NewBaseVM(r, "History", "/")

	if vm.SiteName != "Outbreak Lab" {
		t.Errorf("SiteName = %q", vm.SiteName)
	}
	if string(vm.FooterHTML) != "<b>lab</b>" {
		t.Errorf("FooterHTML = %q, want sanitized", vm.FooterHTML)
	}
	if vm.Title != "History" || vm.WorkbenchID != "wb-1" || !vm.HistoryEnabled {
		t.Errorf("vm = %+v", vm)
	}
	if vm.BackURL == "" {
		t.Error("BackURL is empty, want default")
	}
}
