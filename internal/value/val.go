package value

import "github.com/dtlc-lang/telescope/internal/syntax"

// Val is a weak-head normal form, as produced by internal/nbe.Eval
// and read back to a Tm by internal/nbe.Quote.
type Val interface {
	valNode()
}

// Head is the head of a neutral value: either a bound variable at a
// given level, or a (possibly still unsolved) metavariable.
type Head interface {
	headNode()
}

type HVar struct{ Lvl Lvl }
type HMeta struct{ Id syntax.MId }

func (HVar) headNode()  {}
func (HMeta) headNode() {}

// Elim is one eliminator in a spine, applied left-to-right.
type Elim interface {
	elimNode()
}

// EApp is ordinary application.
type EApp struct {
	Arg  Val
	Icit syntax.Icit
}

// EAppTel is telescope application; Dom is the telescope-domain type
// the application was checked against, needed to interpret the
// argument as a Tcons/Tempty record when the spine is forced.
type EAppTel struct {
	Dom Val
	Arg Val
}

// EProj1/EProj2 project the head/tail of a telescope record; kept in
// the eliminator vocabulary even though elaboration only ever produces
// the AppTel path, so pattern spine checking still has to recognize
// and reject them.
type EProj1 struct{}
type EProj2 struct{}

func (EApp) elimNode()    {}
func (EAppTel) elimNode() {}
func (EProj1) elimNode()  {}
func (EProj2) elimNode()  {}

// Spine is a left-to-right snoc list of eliminators.
type Spine []Elim

// VNe is a neutral value: a head that cannot reduce further, applied
// to a (possibly empty) spine of eliminators.
type VNe struct {
	Head  Head
	Spine Spine
}

// VU is the universe value.
type VU struct{}

// VPi is a semantic ordinary Π; Cod is a host closure over the domain
// value.
type VPi struct {
	Name string
	Icit syntax.Icit
	Dom  Val
	Cod  Binder
}

// VLam is a semantic ordinary λ. Ann caches the evaluated domain
// annotation from the source Tm.Lam so that quoting a VLam back to a
// Tm (e.g. during strengthening, or printing a normal form) can
// reconstruct Lam's required Ann field without re-inferring it.
type VLam struct {
	Name string
	Icit syntax.Icit
	Ann  Val
	Body Binder
}

// VTel is the telescope universe value.
type VTel struct{}

// VRec is the type of records over a telescope (a telescope-bound
// context variable has this type).
type VRec struct{ Tel Val }

// VTEmpty/VTCons are the telescope-type (Tel-valued) constructors.
type VTEmpty struct{}
type VTCons struct {
	Name string
	Head Val
	Tail Binder // Val -> VTel
}

// VTempty/VTcons are the telescope record (value-valued) constructors.
type VTempty struct{}
type VTcons struct {
	Head Val
	Tail Val
}

// VPiTel/VLamTel are Π/λ generalized over a telescope domain.
type VPiTel struct {
	Name string
	Dom  Val
	Cod  Binder
}

// VLamTel.Dom plays the same caching role for AppTel/quote that
// VLam.Ann plays for App/quote.
type VLamTel struct {
	Name string
	Dom  Val
	Body Binder
}

func (VNe) valNode()     {}
func (VU) valNode()      {}
func (VPi) valNode()     {}
func (VLam) valNode()    {}
func (VTel) valNode()    {}
func (VRec) valNode()    {}
func (VTEmpty) valNode() {}
func (VTCons) valNode()  {}
func (VTempty) valNode() {}
func (VTcons) valNode()  {}
func (VPiTel) valNode()  {}
func (VLamTel) valNode() {}

// VVar constructs the neutral value for a freshly bound variable at
// level l, i.e. the value a binder applies its closure to.
func VVar(l Lvl) Val {
	return VNe{Head: HVar{Lvl: l}, Spine: nil}
}

// VMeta constructs the neutral value for an as-yet-unapplied meta.
func VMeta(m syntax.MId) Val {
	return VNe{Head: HMeta{Id: m}, Spine: nil}
}
