package depprop

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/parser"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

func compile(t *testing.T, sources ...string) *semantic.Compilation {
	t.Helper()

	catalog, err := semantic.DefaultCatalog()
	require.NoError(t, err)

	files := make([]*ast.File, 0, len(sources))
	for i, src := range sources {
		f, errs, err := parser.ParseString(context.Background(), fmt.Sprintf("File%d.cs", i), src)
		require.NoError(t, err)
		require.Empty(t, errs)
		files = append(files, f)
	}
	return semantic.NewCompilation(files, catalog)
}

// analyzeAll runs the engine over every member declaration, the way the driver does.
func analyzeAll(t *testing.T, e *Engine, c *semantic.Compilation) rules.List {
	t.Helper()

	ctx := context.Background()
	table := e.BuildTable(ctx, c.SourceTypes())
	require.NotNil(t, table)

	var out rules.List
	for _, m := range Members(c.Files()) {
		out = append(out, e.AnalyzeNode(ctx, m, table)...)
	}
	out.Sort()
	return out
}

func analyzeSource(t *testing.T, sources ...string) rules.List {
	t.Helper()
	c := compile(t, sources...)
	return analyzeAll(t, New(c), c)
}

func codes(diags rules.List) []rules.ID {
	out := make([]rules.ID, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

const wellFormed = `
public class Gauge : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Gauge),
        new PropertyMetadata(0.0, OnValueChanged, CoerceValue), ValidateValue);

    public double Value
    {
        get { return (double)GetValue(ValueProperty); }
        set { SetValue(ValueProperty, value); }
    }

    private static void OnValueChanged(DependencyObject d, DependencyPropertyChangedEventArgs e) { }

    private static object CoerceValue(DependencyObject d, object baseValue) { return baseValue; }

    private static bool ValidateValue(object value) { return true; }
}`

func TestWellFormedClusterIsClean(t *testing.T) {
	assert.Empty(t, analyzeSource(t, wellFormed))
}

func TestAnalysisIsIdempotent(t *testing.T) {
	c := compile(t, `
public class Dial : FrameworkElement
{
    public static DependencyProperty LevelField = DependencyProperty.Register(
        "Level", typeof(int), typeof(Dial), new PropertyMetadata(1.5, Changed));

    public string Level
    {
        get => (string)GetValue(LevelField);
        set => SetValue(LevelField, value);
    }

    private static void Changed(DependencyObject d, DependencyPropertyChangedEventArgs e) { }
}`)
	e := New(c)

	first := analyzeAll(t, e, c)
	require.NotEmpty(t, first)
	second := analyzeAll(t, e, c)
	assert.Equal(t, first, second)

	for _, m := range Members(c.Files()) {
		assert.Equal(t,
			e.AnalyzeNode(context.Background(), m, nil),
			e.AnalyzeNode(context.Background(), m, nil))
	}
}

func TestEachViolationReportedOnce(t *testing.T) {
	diags := analyzeSource(t, `
public class Dial : FrameworkElement
{
    public static DependencyProperty LevelField = DependencyProperty.Register(
        "Level", typeof(int), typeof(Dial), new PropertyMetadata(1.5, Changed));

    public string Level
    {
        get => (string)GetValue(LevelField);
        set => SetValue(LevelField, value);
    }

    private static void Changed(DependencyObject d, DependencyPropertyChangedEventArgs e) { }
}`)

	assert.ElementsMatch(t, []rules.ID{
		rules.BackingFieldName,
		rules.BackingFieldStaticReadOnly,
		rules.PropertyType,
		rules.ChangedCallbackName,
		rules.DefaultValueType,
	}, codes(diags))

	for _, d := range diags {
		assert.Equal(t, "File0.cs", d.File)
	}
}

func TestAccessorMethodName(t *testing.T) {
	diags := analyzeSource(t, `
public static class Attach
{
    public static readonly DependencyProperty BarProperty = DependencyProperty.RegisterAttached(
        "Bar", typeof(int), typeof(Attach));

    public static int GetBar(DependencyObject obj) { return (int)obj.GetValue(BarProperty); }

    public static void SetBar(DependencyObject obj, int value) { obj.SetValue(BarProperty, value); }

    public static int GetError(DependencyObject obj) { return (int)obj.GetValue(BarProperty); }
}`)

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, rules.AccessorMethodName, d.Code)
	assert.Equal(t, []string{"GetError", "GetBar"}, d.Args)
	assert.Equal(t, "Method 'GetError' should be named 'GetBar'", d.Message)
	require.NotNil(t, d.Fix)
	assert.Equal(t, "GetError", d.Fix.Actual)
	assert.Equal(t, "GetBar", d.Fix.Expected)
}

func TestNonLiteralNameAbstains(t *testing.T) {
	diags := analyzeSource(t, `
public static class Names
{
    public static string Compute() { return "Bar"; }
}

public static class Attach
{
    public static readonly DependencyProperty FooProperty = DependencyProperty.RegisterAttached(
        Names.Compute(), typeof(int), typeof(Attach));

    public static int GetError(DependencyObject obj) { return (int)obj.GetValue(FooProperty); }
}`)

	for _, d := range diags {
		assert.NotEqual(t, rules.BackingFieldName, d.Code)
		assert.NotEqual(t, rules.AccessorMethodName, d.Code)
	}
}

func TestDefaultValueType(t *testing.T) {
	const src = `
public class Gauge : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Gauge), new PropertyMetadata(%s));
}`

	diags := analyzeSource(t, fmt.Sprintf(src, "1"))
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, rules.DefaultValueType, d.Code)
	assert.Equal(t, []string{"1", "int", "double"}, d.Args)
	assert.Equal(t, d.Span.Start.Offset+1, d.Span.End.Offset, "located at the literal")

	assert.Empty(t, analyzeSource(t, fmt.Sprintf(src, "1.0")))
	assert.Empty(t, analyzeSource(t, fmt.Sprintf(src, "(double)1")))
}

func TestForwardingLambdaCallbackName(t *testing.T) {
	c := compile(t, `
public class FooControl : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(FooControl),
        new PropertyMetadata(0.0, (d, e) => ((FooControl)d).WrongName((double)e.OldValue, (double)e.NewValue)));

    private void WrongName(double oldValue, double newValue) { }
}`)
	diags := analyzeAll(t, New(c), c)

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, rules.ChangedCallbackName, d.Code)
	assert.Equal(t, []string{"WrongName", "OnValueChanged"}, d.Args)

	m := sourceType(t, c, "FooControl").Methods("WrongName")[0]
	assert.Equal(t, m.Decl.Name.Span(), d.Span)
	require.NotNil(t, d.Fix)
	require.NotNil(t, d.Fix.Registration)
	assert.Equal(t, "changed", d.Fix.Registration.Slot)
	assert.Equal(t, "Value", d.Fix.Registration.Name)

	// Only the method declaration carries the finding.
	field := sourceType(t, c, "FooControl").Field("ValueProperty")
	assert.Empty(t, New(c).AnalyzeNode(context.Background(), field.Decl, nil))
}

func TestSharedCallbackSkipsNaming(t *testing.T) {
	const src = `
public class Pair : FrameworkElement
{
    public static readonly DependencyProperty BarProperty = DependencyProperty.Register(
        "Bar", typeof(int), typeof(Pair), new PropertyMetadata(0, Meh));

    public static readonly DependencyProperty BazProperty = DependencyProperty.Register(
        "Baz", typeof(int), typeof(Pair), new PropertyMetadata(0, Meh));

    private static void Meh(%s) { }
}`

	assert.Empty(t, analyzeSource(t, fmt.Sprintf(src, "DependencyObject d, DependencyPropertyChangedEventArgs e")))

	diags := analyzeSource(t, fmt.Sprintf(src, "DependencyObject d"))
	require.Len(t, diags, 1)
	assert.Equal(t, rules.CallbackSignature, diags[0].Code)
	assert.Equal(t, []string{"Meh", "PropertyChangedCallback"}, diags[0].Args)
}

func TestCallbackInAnotherType(t *testing.T) {
	c := compile(t, `
public static class Handlers
{
    public static void Changed(DependencyObject d, DependencyPropertyChangedEventArgs e) { }
}`, `
public class Knob : FrameworkElement
{
    public static readonly DependencyProperty LevelProperty = DependencyProperty.Register(
        "Level", typeof(int), typeof(Knob), new PropertyMetadata(0, Handlers.Changed));
}`)
	diags := analyzeAll(t, New(c), c)

	require.Len(t, diags, 1)
	assert.Equal(t, rules.ChangedCallbackName, diags[0].Code)
	assert.Equal(t, []string{"Changed", "OnLevelChanged"}, diags[0].Args)
	assert.Equal(t, "File0.cs", diags[0].File)
}

func TestAttachedReadOnlyIdiom(t *testing.T) {
	diags := analyzeSource(t, `
public static class Tracker
{
    private static readonly DependencyPropertyKey BarPropertyKey = DependencyProperty.RegisterAttachedReadOnly(
        "Bar", typeof(int), typeof(Tracker), new PropertyMetadata(0));

    public static readonly DependencyProperty BarProperty = BarPropertyKey.DependencyProperty;

    private static void SetBar(this DependencyObject element, int value) { element.SetValue(BarPropertyKey, value); }

    public static int GetBar(this DependencyObject element) { return (int)element.GetValue(BarProperty); }
}`)
	assert.Empty(t, diags)
}

func TestReadOnlyKeyNames(t *testing.T) {
	diags := analyzeSource(t, `
public class Meter : FrameworkElement
{
    private static readonly DependencyPropertyKey CountKey = DependencyProperty.RegisterReadOnly(
        "Count", typeof(int), typeof(Meter), new PropertyMetadata(0));

    public static readonly DependencyProperty CountDp = CountKey.DependencyProperty;
}`)

	require.Len(t, diags, 2)
	assert.Equal(t, rules.BackingFieldName, diags[0].Code)
	assert.Equal(t, []string{"CountKey", "CountPropertyKey"}, diags[0].Args)
	assert.Equal(t, rules.DerivedFieldName, diags[1].Code)
	assert.Equal(t, []string{"CountDp", "CountProperty"}, diags[1].Args)
}

func TestOwnership(t *testing.T) {
	diags := analyzeSource(t, `
public class Other : FrameworkElement { }

public class Gauge : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Other));
}

public class Plain
{
    public static readonly DependencyProperty SizeProperty = DependencyProperty.Register(
        "Size", typeof(double), typeof(Plain));
}`)

	require.Len(t, diags, 2)
	assert.Equal(t, rules.RegisterOwner, diags[0].Code)
	assert.Equal(t, []string{"Other", "Gauge"}, diags[0].Args)
	assert.Equal(t, rules.OwnerDerivesDependencyObject, diags[1].Code)
	assert.Equal(t, []string{"Plain", "Size"}, diags[1].Args)
}

func TestAddOwnerInheritsRegistration(t *testing.T) {
	diags := analyzeSource(t, `
public class Host : FrameworkElement
{
    public static readonly DependencyProperty WidthProperty =
        FrameworkElement.WidthProperty.AddOwner(typeof(Host));

    public static readonly DependencyProperty TallProperty =
        FrameworkElement.HeightProperty.AddOwner(typeof(Host), new PropertyMetadata("tall"));
}`)

	assert.ElementsMatch(t, []rules.ID{rules.BackingFieldName, rules.DefaultValueType}, codes(diags))
	for _, d := range diags {
		if d.Code == rules.BackingFieldName {
			assert.Equal(t, []string{"TallProperty", "HeightProperty"}, d.Args)
		}
	}
}

func TestArgumentOrderAndCasts(t *testing.T) {
	diags := analyzeSource(t, `
public class Bar : FrameworkElement
{
    public void OnBarChanged(string oldValue, int newValue) { }
}

public class Foo : FrameworkElement
{
    public static readonly DependencyProperty BarProperty = DependencyProperty.Register(
        "Bar", typeof(int), typeof(Foo),
        new PropertyMetadata(0, (d, e) => ((Bar)d).OnBarChanged((string)e.NewValue, (int)e.OldValue)));
}`)

	assert.ElementsMatch(t, []rules.ID{
		rules.CallbackArgumentOrder,
		rules.CallbackArgumentOrder,
		rules.CallbackSenderCast,
		rules.CallbackValueCast,
	}, codes(diags))
}

func TestNamedArgumentsInAnyOrder(t *testing.T) {
	diags := analyzeSource(t, `
public class Foo : FrameworkElement
{
    public static readonly DependencyProperty BarProperty = DependencyProperty.Register(
        ownerType: typeof(Foo), propertyType: typeof(int), name: "Baz",
        typeMetadata: new PropertyMetadata(propertyChangedCallback: OnBarChanged, defaultValue: 1.0));

    private static void OnBarChanged(DependencyObject d, DependencyPropertyChangedEventArgs e) { }
}`)

	assert.ElementsMatch(t, []rules.ID{
		rules.BackingFieldName,
		rules.DefaultValueType,
		rules.ChangedCallbackName,
	}, codes(diags))
	for _, d := range diags {
		switch d.Code {
		case rules.BackingFieldName:
			assert.Equal(t, []string{"BarProperty", "BazProperty"}, d.Args)
		case rules.DefaultValueType:
			assert.Equal(t, []string{"1.0", "double", "int"}, d.Args)
		case rules.ChangedCallbackName:
			assert.Equal(t, []string{"OnBarChanged", "OnBazChanged"}, d.Args)
		}
	}
}

func TestDeclarationShapes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []rules.ID
		args []string
	}{
		{
			name: "static constructor registration",
			src: `
public class Foo : FrameworkElement
{
    public static readonly DependencyProperty BarProperty;

    static Foo()
    {
        BarProperty = DependencyProperty.Register("Baz", typeof(int), typeof(Foo));
    }
}`,
			want: []rules.ID{rules.BackingFieldName},
			args: []string{"BarProperty", "BazProperty"},
		},
		{
			name: "clean static constructor registration",
			src: `
public class Foo : FrameworkElement
{
    public static readonly DependencyProperty BarProperty;

    static Foo()
    {
        BarProperty = DependencyProperty.Register("Bar", typeof(int), typeof(Foo), new PropertyMetadata(0));
    }

    public int Bar
    {
        get { return (int)GetValue(BarProperty); }
        set { SetValue(BarProperty, value); }
    }
}`,
		},
		{
			name: "override metadata",
			src: `
public class Base : FrameworkElement
{
    public static readonly DependencyProperty BarProperty = DependencyProperty.Register(
        "Bar", typeof(int), typeof(Base));
}

public class Foo : Base
{
    static Foo()
    {
        BarProperty.OverrideMetadata(typeof(Base), new PropertyMetadata(1.0, OnWrong));
    }

    private static void OnWrong(DependencyObject d, DependencyPropertyChangedEventArgs e) { }
}`,
			want: []rules.ID{rules.AddOwnerOwner, rules.DefaultValueType, rules.ChangedCallbackName},
		},
		{
			name: "set current value wrapper",
			src: `
public class Foo : FrameworkElement
{
    public static readonly DependencyProperty BarProperty = DependencyProperty.Register(
        "Bar", typeof(double), typeof(Foo));

    public double Bar
    {
        get { return (double)GetValue(BarProperty); }
        set { SetCurrentValue(BarProperty, value); }
    }
}`,
		},
		{
			name: "set current value write-only wrapper",
			src: `
public class Foo : FrameworkElement
{
    public static readonly DependencyProperty BarProperty = DependencyProperty.Register(
        "Bar", typeof(double), typeof(Foo));

    public double Level
    {
        set { SetCurrentValue(BarProperty, value); }
    }
}`,
			want: []rules.ID{rules.PropertyName},
			args: []string{"Level", "Bar"},
		},
		{
			name: "pattern matched forwarding lambda",
			src: `
public class Foo : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Foo),
        new PropertyMetadata(0.0, (d, e) => { if (d is Foo f) f.Refresh((double)e.NewValue); }));

    private void Refresh(double newValue) { }
}`,
			want: []rules.ID{rules.ChangedCallbackName},
			args: []string{"Refresh", "OnValueChanged"},
		},
		{
			name: "lambda with two calls is not forwarding",
			src: `
public class Foo : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Foo),
        new PropertyMetadata(0.0, (d, e) => ((Foo)d).Refresh(((Foo)d).Scale())));

    private void Refresh(double newValue) { }

    private double Scale() { return 1.0; }
}`,
		},
		{
			name: "delegate wrapped callback",
			src: `
public class Foo : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Foo),
        new PropertyMetadata(0.0, new PropertyChangedCallback(Changed)));

    private static void Changed(DependencyObject d, DependencyPropertyChangedEventArgs e) { }
}`,
			want: []rules.ID{rules.ChangedCallbackName},
			args: []string{"Changed", "OnValueChanged"},
		},
		{
			name: "framework metadata with flags",
			src: `
public class Foo : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Foo),
        new FrameworkPropertyMetadata(0.0, FrameworkPropertyMetadataOptions.AffectsRender, OnValueChanged, CoerceValue));

    private static void OnValueChanged(DependencyObject d, DependencyPropertyChangedEventArgs e) { }

    private static object CoerceValue(DependencyObject d, object baseValue) { return baseValue; }
}`,
		},
		{
			name: "framework metadata with flags and wrong coerce name",
			src: `
public class Foo : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Foo),
        new FrameworkPropertyMetadata(0.0, FrameworkPropertyMetadataOptions.AffectsRender, OnValueChanged, Clamp));

    private static void OnValueChanged(DependencyObject d, DependencyPropertyChangedEventArgs e) { }

    private static object Clamp(DependencyObject d, object baseValue) { return baseValue; }
}`,
			want: []rules.ID{rules.CoerceCallbackName},
			args: []string{"Clamp", "CoerceValue"},
		},
		{
			name: "validate callback name",
			src: `
public class Foo : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Foo), new PropertyMetadata(0.0), IsValid);

    private static bool IsValid(object value) { return true; }
}`,
			want: []rules.ID{rules.ValidateCallbackName},
			args: []string{"IsValid", "ValidateValue"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := analyzeSource(t, tt.src)
			if len(tt.want) == 0 {
				assert.Empty(t, diags)
				return
			}
			assert.ElementsMatch(t, tt.want, codes(diags))
			if tt.args != nil {
				require.Len(t, diags, 1)
				assert.Equal(t, tt.args, diags[0].Args)
			}
		})
	}
}

func TestSharedMutableDefault(t *testing.T) {
	const src = `
public class Board : FrameworkElement
{
    public static readonly DependencyProperty ItemsProperty = DependencyProperty.Register(
        "Items", typeof(%[1]s), typeof(Board), new PropertyMetadata(new %[1]s()));
}`

	diags := analyzeSource(t, fmt.Sprintf(src, "List<string>"))
	require.Len(t, diags, 1)
	assert.Equal(t, rules.DefaultValueSharedInstance, diags[0].Code)

	assert.Empty(t, analyzeSource(t, fmt.Sprintf(src, "SolidColorBrush")))
}

func TestRuleFilter(t *testing.T) {
	c := compile(t, `
public class Gauge : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Gauge), new PropertyMetadata(1));
}`)
	e := New(c, WithRuleFilter(func(id rules.ID) bool { return id != rules.DefaultValueType }))
	assert.Empty(t, analyzeAll(t, e, c))
}

func TestValidatorFaultIsContained(t *testing.T) {
	saved := checks
	checks = append([]check{{rules.PropertyName, func(*pass, *Cluster) { panic("boom") }}}, saved...)
	t.Cleanup(func() { checks = saved })

	core, logs := observer.New(zap.DebugLevel)
	c := compile(t, `
public class Gauge : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Gauge), new PropertyMetadata(1));
}`)
	diags := analyzeAll(t, New(c, WithLogger(zap.New(core))), c)

	assert.Equal(t, []rules.ID{rules.DefaultValueType}, codes(diags))
	faults := logs.FilterMessage("validator fault").All()
	require.NotEmpty(t, faults)
	assert.Equal(t, string(rules.PropertyName), faults[0].ContextMap()["rule"])
}

func TestCancelledAnalysisReportsNothing(t *testing.T) {
	c := compile(t, wellFormed, `
public class Gauge2 : FrameworkElement
{
    public static DependencyProperty Wrong = DependencyProperty.Register(
        "Value", typeof(double), typeof(Gauge2), new PropertyMetadata(1));
}`)
	e := New(c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Nil(t, e.BuildTable(ctx, c.SourceTypes()))
	for _, m := range Members(c.Files()) {
		assert.Nil(t, e.AnalyzeNode(ctx, m, nil))
	}
}

func TestMembersIncludesNestedTypes(t *testing.T) {
	c := compile(t, `
public class Outer : FrameworkElement
{
    public static readonly DependencyProperty AProperty = DependencyProperty.Register(
        "A", typeof(int), typeof(Outer));

    public class Inner : FrameworkElement
    {
        public static readonly DependencyProperty BProp = DependencyProperty.Register(
            "B", typeof(int), typeof(Inner));
    }
}`)
	assert.Len(t, Members(c.Files()), 2)

	diags := analyzeAll(t, New(c), c)
	require.Len(t, diags, 1)
	assert.Equal(t, []string{"BProp", "BProperty"}, diags[0].Args)
}

func sourceType(t *testing.T, c *semantic.Compilation, name string) *semantic.NamedType {
	t.Helper()
	for _, typ := range c.SourceTypes() {
		if typ.Name == name {
			return typ
		}
	}
	t.Fatalf("type %s not found", name)
	return nil
}
