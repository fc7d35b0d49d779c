package sim

// AdminStatusWriter allows writers to receive admin UI status updates.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}

// NotifyAdminStatus forwards the admin listening state to w and, for a
// MultiWriter, to every member that accepts it.
func NotifyAdminStatus(w any, listening bool) {
	switch v := w.(type) {
	case *MultiWriter:
		for _, m := range v.members() {
			NotifyAdminStatus(m, listening)
		}
	case AdminStatusWriter:
		v.SetAdminStatus(listening)
	}
}
